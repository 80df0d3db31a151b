package house

import (
	"context"
	"errors"
	"strings"
	"time"

	"villabook/internal/domain/ledger"
)

var (
	ErrNotFound     = errors.New("house: not found")
	ErrCodeNotFound = errors.New("house: code not found")
	ErrNameRequired = errors.New("house: name is required")
)

type ID string

// House is a rentable villa. Code links the house to its availability
// ledger partition; houses without a code have no calendar.
type House struct {
	ID               ID
	Name             string
	Code             string
	Zone             string
	Address          string
	Description      string
	ShortDescription string
	Bedrooms         int
	Bathrooms        int
	MaxGuests        int
	PricePerNight    int64
	Amenities        []string
	Images           []Image
	IsActive         bool
	IsFeatured       bool
	Rating           float64
	ReviewCount      int
	SortOrder        int
	Prices           ledger.Entries
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

type Image struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
}

// SearchParams filter the public catalog.
type SearchParams struct {
	Zone         string
	Search       string
	MinGuests    int
	FeaturedOnly bool
	IncludeAll   bool // admin views also see inactive houses
}

// Mutator transforms the current ledger map of a house into its next
// state. Repositories run it inside their per-document critical section.
type Mutator func(ledger.Entries) (ledger.Entries, error)

type Repository interface {
	ByID(ctx context.Context, id ID) (*House, error)
	ByCode(ctx context.Context, code string) (*House, error)
	List(ctx context.Context, params SearchParams) ([]*House, error)
	Save(ctx context.Context, h *House) error
	Delete(ctx context.Context, id ID) error

	// MutatePrices applies fn to the house's date map as a single atomic
	// read-modify-write and returns the updated map. Returns
	// ErrCodeNotFound when no house carries the code.
	MutatePrices(ctx context.Context, code string, fn Mutator) (ledger.Entries, error)
}

type CreateParams struct {
	ID               ID
	Name             string
	Code             string
	Zone             string
	Address          string
	Description      string
	ShortDescription string
	Bedrooms         int
	Bathrooms        int
	MaxGuests        int
	PricePerNight    int64
	Amenities        []string
	IsActive         bool
	IsFeatured       bool
	SortOrder        int
	Now              time.Time
}

func New(params CreateParams) (*House, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	sortOrder := params.SortOrder
	if sortOrder <= 0 {
		sortOrder = 99999
	}
	return &House{
		ID:               params.ID,
		Name:             name,
		Code:             strings.TrimSpace(params.Code),
		Zone:             params.Zone,
		Address:          params.Address,
		Description:      params.Description,
		ShortDescription: params.ShortDescription,
		Bedrooms:         params.Bedrooms,
		Bathrooms:        params.Bathrooms,
		MaxGuests:        params.MaxGuests,
		PricePerNight:    params.PricePerNight,
		Amenities:        append([]string(nil), params.Amenities...),
		IsActive:         params.IsActive,
		IsFeatured:       params.IsFeatured,
		SortOrder:        sortOrder,
		Prices:           make(ledger.Entries),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Matches reports whether the house satisfies the catalog filters.
func (h *House) Matches(params SearchParams) bool {
	if !params.IncludeAll && !h.IsActive {
		return false
	}
	if params.FeaturedOnly && !h.IsFeatured {
		return false
	}
	if params.Zone != "" && !strings.EqualFold(h.Zone, params.Zone) {
		return false
	}
	if params.MinGuests > 0 && h.MaxGuests < params.MinGuests {
		return false
	}
	if params.Search != "" {
		s := strings.ToLower(params.Search)
		if !strings.Contains(strings.ToLower(h.Name), s) &&
			!strings.Contains(strings.ToLower(h.Description), s) &&
			!strings.Contains(strings.ToLower(h.Zone), s) &&
			!strings.Contains(strings.ToLower(h.Address), s) {
			return false
		}
	}
	return true
}
