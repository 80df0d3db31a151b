package house

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	domainhouse "villabook/internal/domain/house"
)

// Uploader stores a villa photo and returns its public URL plus the
// storage path used for later deletion.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

// Service manages the public villa catalog and its admin CRUD surface.
type Service struct {
	Houses   domainhouse.Repository
	Uploader Uploader
	Logger   *slog.Logger
}

// List returns catalog houses ordered by sortOrder, then newest-first,
// matching the site's display order.
func (s *Service) List(ctx context.Context, params domainhouse.SearchParams) ([]*domainhouse.House, error) {
	houses, err := s.Houses.List(ctx, params)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(houses, func(i, j int) bool {
		if houses[i].SortOrder != houses[j].SortOrder {
			return houses[i].SortOrder < houses[j].SortOrder
		}
		return houses[i].CreatedAt.After(houses[j].CreatedAt)
	})
	return houses, nil
}

func (s *Service) Get(ctx context.Context, id domainhouse.ID) (*domainhouse.House, error) {
	return s.Houses.ByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domainhouse.House, error) {
	return s.Houses.ByCode(ctx, code)
}

func (s *Service) Create(ctx context.Context, params domainhouse.CreateParams) (*domainhouse.House, error) {
	if params.ID == "" {
		params.ID = domainhouse.ID(uuid.NewString())
	}
	h, err := domainhouse.New(params)
	if err != nil {
		return nil, err
	}
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("house created", "house_id", h.ID, "code", h.Code)
	}
	return h, nil
}

// UpdateParams carries partial edits; nil fields are left untouched.
type UpdateParams struct {
	Name             *string
	Code             *string
	Zone             *string
	Address          *string
	Description      *string
	ShortDescription *string
	Bedrooms         *int
	Bathrooms        *int
	MaxGuests        *int
	PricePerNight    *int64
	Amenities        *[]string
	IsActive         *bool
	IsFeatured       *bool
	SortOrder        *int
}

func (s *Service) Update(ctx context.Context, id domainhouse.ID, params UpdateParams) (*domainhouse.House, error) {
	h, err := s.Houses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, domainhouse.ErrNameRequired
		}
		h.Name = name
	}
	if params.Code != nil {
		h.Code = strings.TrimSpace(*params.Code)
	}
	if params.Zone != nil {
		h.Zone = *params.Zone
	}
	if params.Address != nil {
		h.Address = *params.Address
	}
	if params.Description != nil {
		h.Description = *params.Description
	}
	if params.ShortDescription != nil {
		h.ShortDescription = *params.ShortDescription
	}
	if params.Bedrooms != nil {
		h.Bedrooms = *params.Bedrooms
	}
	if params.Bathrooms != nil {
		h.Bathrooms = *params.Bathrooms
	}
	if params.MaxGuests != nil {
		h.MaxGuests = *params.MaxGuests
	}
	if params.PricePerNight != nil {
		h.PricePerNight = *params.PricePerNight
	}
	if params.Amenities != nil {
		h.Amenities = append([]string(nil), (*params.Amenities)...)
	}
	if params.IsActive != nil {
		h.IsActive = *params.IsActive
	}
	if params.IsFeatured != nil {
		h.IsFeatured = *params.IsFeatured
	}
	if params.SortOrder != nil {
		h.SortOrder = *params.SortOrder
	}
	h.UpdatedAt = time.Now().UTC()
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) Delete(ctx context.Context, id domainhouse.ID) error {
	if err := s.Houses.Delete(ctx, id); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("house deleted", "house_id", id)
	}
	return nil
}

// AttachImage uploads a photo and appends it to the house gallery.
func (s *Service) AttachImage(ctx context.Context, id domainhouse.ID, filename string, reader io.Reader, contentType string) (*domainhouse.House, error) {
	if s.Uploader == nil {
		return nil, fmt.Errorf("house: uploader not configured")
	}
	h, err := s.Houses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	safe := sanitizeFilename(filename)
	key := fmt.Sprintf("houses/%s/%d_%s", id, time.Now().UnixMilli(), safe)
	url, err := s.Uploader.Upload(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("house: image upload: %w", err)
	}
	h.Images = append(h.Images, domainhouse.Image{URL: url, StoragePath: key})
	h.UpdatedAt = time.Now().UTC()
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
