package memory

import (
	"context"
	"sync"
	"time"

	domainhouse "villabook/internal/domain/house"
	domainledger "villabook/internal/domain/ledger"
)

// HouseRepository is an in-memory implementation used by tests and
// local development.
type HouseRepository struct {
	mu    sync.RWMutex
	items map[domainhouse.ID]*domainhouse.House
}

func NewHouseRepository() *HouseRepository {
	return &HouseRepository{items: make(map[domainhouse.ID]*domainhouse.House)}
}

func (r *HouseRepository) ByID(ctx context.Context, id domainhouse.ID) (*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[id]
	if !ok {
		return nil, domainhouse.ErrNotFound
	}
	return h, nil
}

func (r *HouseRepository) ByCode(ctx context.Context, code string) (*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h := r.byCodeLocked(code)
	if h == nil {
		return nil, domainhouse.ErrCodeNotFound
	}
	return h, nil
}

func (r *HouseRepository) List(ctx context.Context, params domainhouse.SearchParams) ([]*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainhouse.House, 0, len(r.items))
	for _, h := range r.items {
		if h.Matches(params) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *HouseRepository) Save(ctx context.Context, h *domainhouse.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.Version++
	r.items[h.ID] = h
	return nil
}

func (r *HouseRepository) Delete(ctx context.Context, id domainhouse.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainhouse.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// MutatePrices runs fn under the repository lock, so the read-modify-write
// of a house's date map is atomic.
func (r *HouseRepository) MutatePrices(ctx context.Context, code string, fn domainhouse.Mutator) (domainledger.Entries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.byCodeLocked(code)
	if h == nil {
		return nil, domainhouse.ErrCodeNotFound
	}
	next, err := fn(h.Prices.Clone())
	if err != nil {
		return nil, err
	}
	h.Prices = next
	h.UpdatedAt = time.Now().UTC()
	h.Version++
	return next.Clone(), nil
}

func (r *HouseRepository) byCodeLocked(code string) *domainhouse.House {
	for _, h := range r.items {
		if h.Code == code {
			return h
		}
	}
	return nil
}

var _ domainhouse.Repository = (*HouseRepository)(nil)
