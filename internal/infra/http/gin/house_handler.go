package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	housesvc "villabook/internal/app/services/house"
	domainhouse "villabook/internal/domain/house"
)

type HouseHandler struct {
	Service *housesvc.Service
}

type houseRequest struct {
	Name             string   `json:"name"`
	Code             string   `json:"code"`
	Zone             string   `json:"zone"`
	Address          string   `json:"address"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	Bedrooms         int      `json:"bedrooms"`
	Bathrooms        int      `json:"bathrooms"`
	MaxGuests        int      `json:"maxGuests"`
	PricePerNight    int64    `json:"pricePerNight"`
	Amenities        []string `json:"amenities"`
	IsActive         *bool    `json:"isActive"`
	IsFeatured       bool     `json:"isFeatured"`
	SortOrder        int      `json:"sortOrder"`
}

type houseUpdateRequest struct {
	Name             *string   `json:"name"`
	Code             *string   `json:"code"`
	Zone             *string   `json:"zone"`
	Address          *string   `json:"address"`
	Description      *string   `json:"description"`
	ShortDescription *string   `json:"shortDescription"`
	Bedrooms         *int      `json:"bedrooms"`
	Bathrooms        *int      `json:"bathrooms"`
	MaxGuests        *int      `json:"maxGuests"`
	PricePerNight    *int64    `json:"pricePerNight"`
	Amenities        *[]string `json:"amenities"`
	IsActive         *bool     `json:"isActive"`
	IsFeatured       *bool     `json:"isFeatured"`
	SortOrder        *int      `json:"sortOrder"`
}

type houseImageResponse struct {
	URL         string `json:"url"`
	StoragePath string `json:"storagePath,omitempty"`
}

type houseResponse struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Code             string               `json:"code,omitempty"`
	Zone             string               `json:"zone,omitempty"`
	Address          string               `json:"address,omitempty"`
	Description      string               `json:"description,omitempty"`
	ShortDescription string               `json:"shortDescription,omitempty"`
	Bedrooms         int                  `json:"bedrooms"`
	Bathrooms        int                  `json:"bathrooms"`
	MaxGuests        int                  `json:"maxGuests"`
	PricePerNight    int64                `json:"pricePerNight"`
	Amenities        []string             `json:"amenities,omitempty"`
	Images           []houseImageResponse `json:"images,omitempty"`
	IsActive         bool                 `json:"isActive"`
	IsFeatured       bool                 `json:"isFeatured"`
	Rating           float64              `json:"rating,omitempty"`
	ReviewCount      int                  `json:"reviewCount,omitempty"`
	SortOrder        int                  `json:"sortOrder"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func (h HouseHandler) List(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	params := domainhouse.SearchParams{
		Zone:         c.Query("zone"),
		Search:       c.Query("search"),
		FeaturedOnly: c.Query("featured") == "true",
	}
	if raw := c.Query("guests"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			params.MinGuests = n
		}
	}
	if p, ok := currentPrincipal(c); ok && p.Admin && c.Query("all") == "true" {
		params.IncludeAll = true
	}
	houses, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]houseResponse, 0, len(houses))
	for _, house := range houses {
		out = append(out, toHouseResponse(house))
	}
	c.JSON(http.StatusOK, gin.H{"houses": out})
}

func (h HouseHandler) Get(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	house, err := h.Service.Get(c.Request.Context(), domainhouse.ID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHouseResponse(house))
}

func (h HouseHandler) Create(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	var req houseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	house, err := h.Service.Create(c.Request.Context(), domainhouse.CreateParams{
		Name:             req.Name,
		Code:             req.Code,
		Zone:             req.Zone,
		Address:          req.Address,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		MaxGuests:        req.MaxGuests,
		PricePerNight:    req.PricePerNight,
		Amenities:        req.Amenities,
		IsActive:         active,
		IsFeatured:       req.IsFeatured,
		SortOrder:        req.SortOrder,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toHouseResponse(house))
}

func (h HouseHandler) Update(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	var req houseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	house, err := h.Service.Update(c.Request.Context(), domainhouse.ID(c.Param("id")), housesvc.UpdateParams{
		Name:             req.Name,
		Code:             req.Code,
		Zone:             req.Zone,
		Address:          req.Address,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		MaxGuests:        req.MaxGuests,
		PricePerNight:    req.PricePerNight,
		Amenities:        req.Amenities,
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
		SortOrder:        req.SortOrder,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHouseResponse(house))
}

func (h HouseHandler) Delete(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	if err := h.Service.Delete(c.Request.Context(), domainhouse.ID(c.Param("id"))); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadImage accepts a multipart photo, stores it and appends it to
// the house's image list.
func (h HouseHandler) UploadImage(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "house service unavailable"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	house, err := h.Service.AttachImage(c.Request.Context(), domainhouse.ID(c.Param("id")), header.Filename, file, contentType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toHouseResponse(house))
}

func (h HouseHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainhouse.ErrNotFound), errors.Is(err, domainhouse.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainhouse.ErrNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "house operation failed"})
	}
}

func toHouseResponse(h *domainhouse.House) houseResponse {
	images := make([]houseImageResponse, 0, len(h.Images))
	for _, img := range h.Images {
		images = append(images, houseImageResponse{URL: img.URL, StoragePath: img.StoragePath})
	}
	return houseResponse{
		ID:               string(h.ID),
		Name:             h.Name,
		Code:             h.Code,
		Zone:             h.Zone,
		Address:          h.Address,
		Description:      h.Description,
		ShortDescription: h.ShortDescription,
		Bedrooms:         h.Bedrooms,
		Bathrooms:        h.Bathrooms,
		MaxGuests:        h.MaxGuests,
		PricePerNight:    h.PricePerNight,
		Amenities:        h.Amenities,
		Images:           images,
		IsActive:         h.IsActive,
		IsFeatured:       h.IsFeatured,
		Rating:           h.Rating,
		ReviewCount:      h.ReviewCount,
		SortOrder:        h.SortOrder,
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
	}
}

var _ HouseHTTP = HouseHandler{}
