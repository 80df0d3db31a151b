package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/app/outbox"
	"villabook/internal/app/policies"
	"villabook/internal/app/services/calendar"
	domainbooking "villabook/internal/domain/booking"
	"villabook/internal/domain/house"
	"villabook/internal/domain/ledger"
	"villabook/internal/infra/storage/memory"
)

type fakeNotifier struct {
	friend      string
	pushResult  policies.DeliveryResult
	pushed      []string
	statusCalls []domainbooking.Status
}

func (f *fakeNotifier) FriendStatus(ctx context.Context, lineID string) string {
	return f.friend
}

func (f *fakeNotifier) PushBookingReceived(ctx context.Context, lineID string, b *domainbooking.Booking) policies.DeliveryResult {
	f.pushed = append(f.pushed, lineID)
	return f.pushResult
}

func (f *fakeNotifier) PushStatusUpdate(ctx context.Context, lineID string, b *domainbooking.Booking, status domainbooking.Status) policies.DeliveryResult {
	f.statusCalls = append(f.statusCalls, status)
	return f.pushResult
}

type fixture struct {
	svc      *Service
	houses   *memory.HouseRepository
	bookings *memory.BookingRepository
	box      *memory.Outbox
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	houses := memory.NewHouseRepository()
	bookings := memory.NewBookingRepository()
	box := memory.NewOutbox()
	notifier := &fakeNotifier{
		friend:     policies.FriendStatusFriend,
		pushResult: policies.DeliveryResult{Success: true, StatusCode: 200, RequestID: "req-1"},
	}
	encoder := outbox.JSONEventEncoder{}
	cal := &calendar.Service{Houses: houses, Outbox: box, Encoder: encoder}
	svc := &Service{
		Bookings: bookings,
		Calendar: cal,
		Notifier: notifier,
		Outbox:   box,
		Encoder:  encoder,
		LineOAID: "@villabook",
	}

	h, err := house.New(house.CreateParams{Name: "Baan Talay", Code: "A1", PricePerNight: 4500, IsActive: true})
	require.NoError(t, err)
	require.NoError(t, houses.Save(context.Background(), h))

	return &fixture{svc: svc, houses: houses, bookings: bookings, box: box, notifier: notifier}
}

func createParams() CreateParams {
	return CreateParams{
		UserID:     "u-1",
		UserLineID: "U123",
		UserName:   "Somchai",
		VillaID:    "villa-1",
		VillaName:  "Baan Talay",
		VillaCode:  "A1",
		CheckIn:    "2026-04-10",
		CheckOut:   "2026-04-13",
		Nights:     3,
		Guests:     2,
		TotalPrice: 13500,
	}
}

func (f *fixture) calendarEntries(t *testing.T) ledger.Entries {
	t.Helper()
	entries, err := f.svc.Calendar.Entries(context.Background(), "A1")
	require.NoError(t, err)
	return entries
}

func TestCreateMarksNightsPending(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	b := result.Booking
	assert.Equal(t, domainbooking.StatusPending, b.Status)
	assert.Empty(t, result.LedgerWarning)
	assert.True(t, result.LineMessageSent)
	assert.Equal(t, policies.FriendStatusFriend, result.FriendStatus)
	assert.Equal(t, "https://line.me/R/oaid/@villabook", result.LineOAURL)

	entries := f.calendarEntries(t)
	require.Len(t, entries, 3)
	for _, key := range []string{"2026-04-10", "2026-04-11", "2026-04-12"} {
		assert.Equal(t, ledger.StatusPending, entries[key].Status, key)
		assert.Equal(t, string(b.ID), entries[key].BookingID, key)
	}

	// checkout day stays free
	assert.NotContains(t, entries, "2026-04-13")

	saved, err := f.bookings.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, saved.LineNotify.Sent)
	assert.Equal(t, "req-1", saved.LineNotify.RequestID)
}

func TestCreateRecordsOutboxEvents(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	names := map[string]bool{}
	for _, rec := range f.box.Records() {
		names[rec.Name] = true
	}
	assert.True(t, names["booking.requested"])
	assert.True(t, names["calendar.updated"])
}

func TestCreateNotFriendMeansNotDelivered(t *testing.T) {
	f := newFixture(t)
	f.notifier.friend = policies.FriendStatusNotFriend

	result, err := f.svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	assert.False(t, result.LineMessageSent)
	assert.Equal(t, policies.FriendStatusNotFriend, result.FriendStatus)

	saved, err := f.bookings.ByID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.False(t, saved.LineNotify.Sent)
	assert.Contains(t, saved.LineNotify.Error, "not a friend")
}

func TestCreateWithoutLineIDSkipsPush(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.UserLineID = ""
	result, err := f.svc.Create(context.Background(), params)
	require.NoError(t, err)

	assert.False(t, result.LineMessageSent)
	assert.Empty(t, f.notifier.pushed)

	saved, err := f.bookings.ByID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "missing LINE user id", saved.LineNotify.Error)
}

func TestCreateUnknownHouseCodeWarnsButSaves(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.VillaCode = "ZZ"
	result, err := f.svc.Create(context.Background(), params)
	require.NoError(t, err)

	assert.Contains(t, result.LedgerWarning, "calendar sync failed")

	_, err = f.bookings.ByID(context.Background(), result.Booking.ID)
	assert.NoError(t, err)
}

func TestCreateValidationFailureSavesNothing(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.CheckOut = params.CheckIn
	_, err := f.svc.Create(context.Background(), params)
	assert.ErrorIs(t, err, domainbooking.ErrValidation)

	listed, err := f.bookings.List(context.Background(), domainbooking.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Empty(t, f.calendarEntries(t))
}

func TestConfirmMarksNightsBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	result, err := f.svc.Confirm(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, result.Booking.Status)
	assert.Empty(t, result.LedgerWarning)

	entries := f.calendarEntries(t)
	for _, key := range []string{"2026-04-10", "2026-04-11", "2026-04-12"} {
		assert.Equal(t, ledger.StatusBooked, entries[key].Status, key)
		assert.Equal(t, string(created.Booking.ID), entries[key].BookingID, key)
	}
	assert.Equal(t, []domainbooking.Status{domainbooking.StatusConfirmed}, f.notifier.statusCalls)
}

func TestCancelReleasesNightsKeepingPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a standalone nightly price set before the booking existed
	nightly := int64(4800)
	_, err := f.svc.Calendar.BulkUpdate(ctx, calendar.BulkUpdateParams{
		Code:   "A1",
		Dates:  []string{"2026-04-10"},
		Status: "price-only",
		Price:  &nightly,
	})
	require.NoError(t, err)

	created, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	result, err := f.svc.Cancel(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, result.Booking.Status)

	entries := f.calendarEntries(t)
	assert.Equal(t, ledger.Entry{Price: 4800}, entries["2026-04-10"])
	assert.NotContains(t, entries, "2026-04-11")
	assert.NotContains(t, entries, "2026-04-12")
}

func TestDoubleTransitionLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, created.Booking.ID)
	require.NoError(t, err)

	before := f.calendarEntries(t)

	_, err = f.svc.Confirm(ctx, created.Booking.ID)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
	_, err = f.svc.Cancel(ctx, created.Booking.ID)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	assert.Equal(t, before, f.calendarEntries(t))
}

func TestUpdateStatusRejectsNonTargetStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, created.Booking.ID, domainbooking.StatusPending)
	assert.ErrorIs(t, err, domainbooking.ErrValidation)
}

func TestTransitionUnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	assert.True(t, IsNotFound(err))
}
