package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	calendarsvc "villabook/internal/app/services/calendar"
	domainhouse "villabook/internal/domain/house"
	domainledger "villabook/internal/domain/ledger"
)

type CalendarHandler struct {
	Service *calendarsvc.Service
}

type calendarEntryResponse struct {
	Status    string `json:"status"`
	Price     int64  `json:"price,omitempty"`
	BookingID string `json:"bookingId,omitempty"`
}

type bulkUpdateRequest struct {
	Code      string   `json:"code"`
	Dates     []string `json:"dates"`
	Status    string   `json:"status"`
	Price     *int64   `json:"price"`
	BookingID string   `json:"bookingId"`
}

// Get returns one house's date map when ?code= is set, otherwise every
// house keyed by code.
func (h CalendarHandler) Get(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar service unavailable"})
		return
	}
	if code := c.Query("code"); code != "" {
		entries, err := h.Service.Entries(c.Request.Context(), code)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCalendarResponse(entries))
		return
	}
	all, err := h.Service.AllEntries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make(map[string]map[string]calendarEntryResponse, len(all))
	for code, entries := range all {
		out[code] = toCalendarResponse(entries)
	}
	c.JSON(http.StatusOK, out)
}

// BulkUpdate applies one status/price edit to a set of dates and
// returns the full updated map.
func (h CalendarHandler) BulkUpdate(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar service unavailable"})
		return
	}
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	entries, err := h.Service.BulkUpdate(c.Request.Context(), calendarsvc.BulkUpdateParams{
		Code:      req.Code,
		Dates:     req.Dates,
		Status:    req.Status,
		Price:     req.Price,
		BookingID: req.BookingID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": len(req.Dates),
		"prices":  toCalendarResponse(entries),
	})
}

func (h CalendarHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainhouse.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, calendarsvc.ErrCodeRequired),
		errors.Is(err, calendarsvc.ErrInvalidDate),
		errors.Is(err, domainledger.ErrNoDates),
		errors.Is(err, domainledger.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calendar update failed"})
	}
}

func toCalendarResponse(entries domainledger.Entries) map[string]calendarEntryResponse {
	out := make(map[string]calendarEntryResponse, len(entries))
	for key, e := range entries {
		out[key] = calendarEntryResponse{
			Status:    string(e.EffectiveStatus()),
			Price:     e.Price,
			BookingID: e.BookingID,
		}
	}
	return out
}

var _ CalendarHTTP = CalendarHandler{}
