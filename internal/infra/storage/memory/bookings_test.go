package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "villabook/internal/domain/booking"
)

func newStoredBooking(t *testing.T, repo *BookingRepository) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         "b1",
		VillaID:    "v1",
		VillaCode:  "A1",
		CheckIn:    "2026-02-01",
		CheckOut:   "2026-02-03",
		Nights:     2,
		TotalPrice: 9000,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestBookingRepositoryUpdateStatusComparesPriorStatus(t *testing.T) {
	repo := NewBookingRepository()
	b := newStoredBooking(t, repo)
	ctx := context.Background()
	now := time.Now().UTC()

	err := repo.UpdateStatus(ctx, b.ID, domainbooking.StatusPending, domainbooking.StatusConfirmed, now)
	require.NoError(t, err)

	// A second transition racing from the same pending snapshot loses.
	err = repo.UpdateStatus(ctx, b.ID, domainbooking.StatusPending, domainbooking.StatusCancelled, now)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	stored, err := repo.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
}

func TestBookingRepositoryUpdateStatusUnknownID(t *testing.T) {
	repo := NewBookingRepository()
	err := repo.UpdateStatus(context.Background(), "missing", domainbooking.StatusPending, domainbooking.StatusConfirmed, time.Now())
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}
