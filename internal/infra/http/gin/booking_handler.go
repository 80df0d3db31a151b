package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	bookingsvc "villabook/internal/app/services/booking"
	domainbooking "villabook/internal/domain/booking"
)

type BookingHandler struct {
	Service *bookingsvc.Service
}

type createBookingRequest struct {
	VillaID    string `json:"villaId"`
	VillaName  string `json:"villaName"`
	VillaCode  string `json:"villaCode"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Nights     int    `json:"nights"`
	Guests     int    `json:"guests"`
	TotalPrice int64  `json:"totalPrice"`
	Message    string `json:"message"`
	UserName   string `json:"userName"`
	UserPhone  string `json:"userPhone"`
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	ID         string                `json:"id"`
	UserID     string                `json:"userId,omitempty"`
	UserLineID string                `json:"userLineId,omitempty"`
	UserName   string                `json:"userName,omitempty"`
	UserPhone  string                `json:"userPhone,omitempty"`
	VillaID    string                `json:"villaId"`
	VillaName  string                `json:"villaName,omitempty"`
	VillaCode  string                `json:"villaCode,omitempty"`
	CheckIn    string                `json:"checkIn"`
	CheckOut   string                `json:"checkOut"`
	Nights     int                   `json:"nights"`
	Guests     int                   `json:"guests"`
	TotalPrice int64                 `json:"totalPrice"`
	Message    string                `json:"message,omitempty"`
	Status     string                `json:"status"`
	LineNotify *notificationResponse `json:"lineNotify,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

type notificationResponse struct {
	Sent         bool   `json:"sent"`
	StatusCode   int    `json:"statusCode,omitempty"`
	RequestID    string `json:"requestId,omitempty"`
	Error        string `json:"error,omitempty"`
	FriendStatus string `json:"friendStatus,omitempty"`
	SentAt       string `json:"sentAt,omitempty"`
}

func (h BookingHandler) Create(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking service unavailable"})
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	params := bookingsvc.CreateParams{
		VillaID:    req.VillaID,
		VillaName:  req.VillaName,
		VillaCode:  req.VillaCode,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Nights:     req.Nights,
		Guests:     req.Guests,
		TotalPrice: req.TotalPrice,
		Message:    req.Message,
		UserName:   req.UserName,
		UserPhone:  req.UserPhone,
	}
	if !p.Admin {
		params.UserID = p.UserID
		params.UserLineID = p.LineID
		if params.UserName == "" {
			params.UserName = p.DisplayName
		}
	}
	result, err := h.Service.Create(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking":         toBookingResponse(result.Booking),
		"lineMessageSent": result.LineMessageSent,
		"friendStatus":    result.FriendStatus,
		"lineOAUrl":       result.LineOAURL,
		"calendarWarning": result.LedgerWarning,
	})
}

func (h BookingHandler) List(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking service unavailable"})
		return
	}
	filter := domainbooking.ListFilter{
		VillaID: c.Query("villaId"),
		Status:  domainbooking.Status(c.Query("status")),
	}
	bookings, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h BookingHandler) Get(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking service unavailable"})
		return
	}
	b, err := h.Service.Get(c.Request.Context(), domainbooking.BookingID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p, ok := currentPrincipal(c); !ok || (!p.Admin && p.UserID != b.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": domainbooking.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// UpdateStatus moves a booking to confirmed or cancelled and syncs the
// house calendar. A failed sync is reported as a warning, not an error.
func (h BookingHandler) UpdateStatus(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking service unavailable"})
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	status, err := domainbooking.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Service.UpdateStatus(c.Request.Context(), domainbooking.BookingID(c.Param("id")), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":         toBookingResponse(result.Booking),
		"calendarWarning": result.LedgerWarning,
	})
}

func (h BookingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "booking operation failed"})
	}
}

func toBookingResponse(b *domainbooking.Booking) bookingResponse {
	resp := bookingResponse{
		ID:         string(b.ID),
		UserID:     b.UserID,
		UserLineID: b.UserLineID,
		UserName:   b.UserName,
		UserPhone:  b.UserPhone,
		VillaID:    b.VillaID,
		VillaName:  b.VillaName,
		VillaCode:  b.VillaCode,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Nights:     b.Nights,
		Guests:     b.Guests,
		TotalPrice: b.TotalPrice,
		Message:    b.Message,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if n := b.LineNotify; n != (domainbooking.Notification{}) {
		sentAt := ""
		if !n.SentAt.IsZero() {
			sentAt = n.SentAt.UTC().Format(time.RFC3339)
		}
		resp.LineNotify = &notificationResponse{
			Sent:         n.Sent,
			StatusCode:   n.StatusCode,
			RequestID:    n.RequestID,
			Error:        n.Error,
			FriendStatus: n.FriendStatus,
			SentAt:       sentAt,
		}
	}
	return resp
}

var _ BookingHTTP = BookingHandler{}
