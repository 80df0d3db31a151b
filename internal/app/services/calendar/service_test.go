package calendar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/app/outbox"
	"villabook/internal/domain/house"
	"villabook/internal/domain/ledger"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/infra/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Outbox) {
	t.Helper()
	houses := memory.NewHouseRepository()
	box := memory.NewOutbox()
	svc := &Service{Houses: houses, Outbox: box, Encoder: outbox.JSONEventEncoder{}}

	h, err := house.New(house.CreateParams{Name: "Baan Talay", Code: "A1", PricePerNight: 4500, IsActive: true})
	require.NoError(t, err)
	require.NoError(t, houses.Save(context.Background(), h))
	return svc, box
}

func intPtr(v int64) *int64 { return &v }

func TestBulkUpdateDefaultsToBooked(t *testing.T) {
	svc, box := newTestService(t)

	entries, err := svc.BulkUpdate(context.Background(), BulkUpdateParams{
		Code:  "A1",
		Dates: []string{"2026-06-01", "2026-06-02"},
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusBooked, entries["2026-06-01"].Status)
	assert.Equal(t, ledger.StatusBooked, entries["2026-06-02"].Status)

	records := box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "calendar.updated", records[0].Name)
	assert.Equal(t, "A1", records[0].Aggregate)
}

func TestBulkUpdateReleaseKeepsPrices(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-06-01"},
		Status: "booked",
		Price:  intPtr(5200),
	})
	require.NoError(t, err)

	entries, err := svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-06-01"},
		Status: "available",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Entry{Price: 5200}, entries["2026-06-01"])
}

func TestBulkUpdatePriceOnlyRequiresPositivePrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-06-01"},
		Status: "price-only",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidPrice)

	_, err = svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-06-01"},
		Status: "price-only",
		Price:  intPtr(-50),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidPrice)
}

func TestBulkUpdatePriceOnlyKeepsStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:      "A1",
		Dates:     []string{"2026-06-01"},
		Status:    "pending",
		BookingID: "bk-1",
	})
	require.NoError(t, err)

	entries, err := svc.BulkUpdate(ctx, BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-06-01"},
		Status: "price-only",
		Price:  intPtr(3900),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Entry{Status: ledger.StatusPending, Price: 3900, BookingID: "bk-1"}, entries["2026-06-01"])
}

func TestBulkUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.BulkUpdate(ctx, BulkUpdateParams{Dates: []string{"2026-06-01"}})
	assert.ErrorIs(t, err, ErrCodeRequired)

	_, err = svc.BulkUpdate(ctx, BulkUpdateParams{Code: "A1"})
	assert.ErrorIs(t, err, ledger.ErrNoDates)

	_, err = svc.BulkUpdate(ctx, BulkUpdateParams{Code: "A1", Dates: []string{"06/01/2026"}})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.BulkUpdate(ctx, BulkUpdateParams{Code: "missing", Dates: []string{"2026-06-01"}})
	assert.ErrorIs(t, err, house.ErrCodeNotFound)
}

func TestEntriesUnknownCodeIsEmptyCalendar(t *testing.T) {
	svc, _ := newTestService(t)

	entries, err := svc.Entries(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAllEntriesKeyedByCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.BulkUpdate(ctx, BulkUpdateParams{Code: "A1", Dates: []string{"2026-06-01"}})
	require.NoError(t, err)

	all, err := svc.AllEntries(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "A1")
	assert.Equal(t, ledger.StatusBooked, all["A1"]["2026-06-01"].Status)
}

func TestMarkAndReleaseRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dr, err := daterange.Parse("2026-06-01", "2026-06-04")
	require.NoError(t, err)

	entries, err := svc.MarkRange(ctx, "A1", dr, ledger.StatusPending, "bk-9")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, key := range dr.Keys() {
		assert.Equal(t, ledger.Entry{Status: ledger.StatusPending, BookingID: "bk-9"}, entries[key])
	}

	entries, err = svc.ReleaseRange(ctx, "A1", dr)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
