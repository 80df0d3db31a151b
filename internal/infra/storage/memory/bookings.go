package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "villabook/internal/domain/booking"
)

type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b, nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		if filter.VillaID != "" && b.VillaID != filter.VillaID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id domainbooking.BookingID, from, to domainbooking.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return domainbooking.ErrNotFound
	}
	if b.Status != from {
		return domainbooking.ErrInvalidState
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}

func (r *BookingRepository) UpdateNotification(ctx context.Context, id domainbooking.BookingID, n domainbooking.Notification, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return domainbooking.ErrNotFound
	}
	b.LineNotify = n
	b.UpdatedAt = at
	return nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
