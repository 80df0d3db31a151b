package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villabook/internal/app/outbox"
	"villabook/internal/app/policies"
	"villabook/internal/app/services/calendar"
	domainbooking "villabook/internal/domain/booking"
	"villabook/internal/domain/ledger"
)

// Service sequences booking state transitions with their calendar and
// notification side effects. The booking record is ground truth: ledger
// sync and LINE delivery are best-effort, surfaced as warnings and
// bookkeeping fields rather than failures.
type Service struct {
	Bookings domainbooking.Repository
	Calendar *calendar.Service
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	LineOAID string
	Logger   *slog.Logger
}

type CreateParams struct {
	UserID     string
	UserLineID string
	UserName   string
	UserPhone  string
	VillaID    string
	VillaName  string
	VillaCode  string
	CheckIn    string
	CheckOut   string
	Nights     int
	Guests     int
	TotalPrice int64
	Message    string
}

type CreateResult struct {
	Booking         *domainbooking.Booking
	LedgerWarning   string
	LineMessageSent bool
	FriendStatus    string
	LineOAURL       string
}

type TransitionResult struct {
	Booking       *domainbooking.Booking
	LedgerWarning string
}

// Create persists a pending booking, marks its nights pending on the
// house ledger and pushes the LINE confirmation. Steps 2 and 3 cannot
// roll back step 1: a saved booking intent is never silently discarded.
func (s *Service) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(uuid.NewString()),
		UserID:     params.UserID,
		UserLineID: params.UserLineID,
		UserName:   params.UserName,
		UserPhone:  params.UserPhone,
		VillaID:    params.VillaID,
		VillaName:  params.VillaName,
		VillaCode:  params.VillaCode,
		CheckIn:    params.CheckIn,
		CheckOut:   params.CheckOut,
		Nights:     params.Nights,
		Guests:     params.Guests,
		TotalPrice: params.TotalPrice,
		Message:    params.Message,
		Now:        time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	result := &CreateResult{
		Booking:      b,
		FriendStatus: policies.FriendStatusUnknown,
		LineOAURL:    s.lineOAURL(),
	}
	result.LedgerWarning = s.syncLedger(ctx, b, ledger.StatusPending)
	s.notifyCreated(ctx, b, result)
	s.drainEvents(ctx, b)
	return result, nil
}

// Confirm moves a pending booking to confirmed and re-marks its nights
// booked. Only pending bookings can be confirmed.
func (s *Service) Confirm(ctx context.Context, id domainbooking.BookingID) (*TransitionResult, error) {
	return s.transition(ctx, id, domainbooking.StatusConfirmed)
}

// Cancel moves a non-terminal booking to cancelled and releases its
// nights, retaining any standalone nightly prices.
func (s *Service) Cancel(ctx context.Context, id domainbooking.BookingID) (*TransitionResult, error) {
	return s.transition(ctx, id, domainbooking.StatusCancelled)
}

// UpdateStatus dispatches an admin status change to Confirm or Cancel.
func (s *Service) UpdateStatus(ctx context.Context, id domainbooking.BookingID, status domainbooking.Status) (*TransitionResult, error) {
	switch status {
	case domainbooking.StatusConfirmed:
		return s.Confirm(ctx, id)
	case domainbooking.StatusCancelled:
		return s.Cancel(ctx, id)
	default:
		return nil, domainbooking.ErrValidation
	}
}

func (s *Service) Get(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return s.Bookings.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	return s.Bookings.List(ctx, filter)
}

func (s *Service) transition(ctx context.Context, id domainbooking.BookingID, target domainbooking.Status) (*TransitionResult, error) {
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	prior := b.Status
	switch target {
	case domainbooking.StatusConfirmed:
		err = b.Confirm(now)
	case domainbooking.StatusCancelled:
		err = b.Cancel(now)
	default:
		err = domainbooking.ErrValidation
	}
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, prior, b.Status, b.UpdatedAt); err != nil {
		return nil, err
	}

	result := &TransitionResult{Booking: b}
	if target == domainbooking.StatusConfirmed {
		result.LedgerWarning = s.syncLedger(ctx, b, ledger.StatusBooked)
	} else {
		result.LedgerWarning = s.releaseLedger(ctx, b)
	}
	s.notifyStatus(ctx, b, target)
	s.drainEvents(ctx, b)
	return result, nil
}

// syncLedger marks the stay's nights with status. Failures are reported
// as a warning string, never as an error: the booking record already
// holds the authoritative state and the ledger can be rebuilt from it.
func (s *Service) syncLedger(ctx context.Context, b *domainbooking.Booking, status ledger.Status) string {
	if b.VillaCode == "" || s.Calendar == nil {
		return ""
	}
	dr, err := b.Range()
	if err != nil {
		return s.ledgerWarning(b, err)
	}
	if _, err := s.Calendar.MarkRange(ctx, b.VillaCode, dr, status, string(b.ID)); err != nil {
		return s.ledgerWarning(b, err)
	}
	return ""
}

func (s *Service) releaseLedger(ctx context.Context, b *domainbooking.Booking) string {
	if b.VillaCode == "" || s.Calendar == nil {
		return ""
	}
	dr, err := b.Range()
	if err != nil {
		return s.ledgerWarning(b, err)
	}
	if _, err := s.Calendar.ReleaseRange(ctx, b.VillaCode, dr); err != nil {
		return s.ledgerWarning(b, err)
	}
	return ""
}

func (s *Service) ledgerWarning(b *domainbooking.Booking, err error) string {
	if s.Logger != nil {
		s.Logger.Error("calendar sync failed, booking saved", "booking_id", b.ID, "villa_code", b.VillaCode, "error", err)
	}
	return "calendar sync failed: " + err.Error()
}

func (s *Service) notifyCreated(ctx context.Context, b *domainbooking.Booking, result *CreateResult) {
	if s.Notifier == nil {
		return
	}
	now := time.Now().UTC()
	if b.UserLineID == "" {
		s.recordNotification(ctx, b, domainbooking.Notification{Error: "missing LINE user id"}, now)
		return
	}

	friend := s.Notifier.FriendStatus(ctx, b.UserLineID)
	result.FriendStatus = friend

	res := s.Notifier.PushBookingReceived(ctx, b.UserLineID, b)
	n := domainbooking.Notification{
		StatusCode:   res.StatusCode,
		RequestID:    res.RequestID,
		FriendStatus: friend,
	}
	switch {
	case res.Success && friend == policies.FriendStatusFriend:
		n.Sent = true
		n.SentAt = now
		result.LineMessageSent = true
	case res.Success:
		// accepted by the API but the user never added the OA
		n.Error = "push accepted but user is not a friend of the OA"
	default:
		n.Error = res.Error
		if n.Error == "" {
			n.Error = "LINE push failed"
		}
	}
	s.recordNotification(ctx, b, n, now)
}

func (s *Service) notifyStatus(ctx context.Context, b *domainbooking.Booking, status domainbooking.Status) {
	if s.Notifier == nil || b.UserLineID == "" {
		return
	}
	res := s.Notifier.PushStatusUpdate(ctx, b.UserLineID, b, status)
	if !res.Success && s.Logger != nil {
		s.Logger.Warn("status notification failed", "booking_id", b.ID, "status", status, "code", res.StatusCode, "error", res.Error)
	}
}

// recordNotification persists delivery bookkeeping. Errors here must not
// reach the caller; the booking itself already succeeded.
func (s *Service) recordNotification(ctx context.Context, b *domainbooking.Booking, n domainbooking.Notification, at time.Time) {
	b.LineNotify = n
	if err := s.Bookings.UpdateNotification(ctx, b.ID, n, at); err != nil && s.Logger != nil {
		s.Logger.Error("notification bookkeeping failed", "booking_id", b.ID, "error", err)
	}
}

func (s *Service) drainEvents(ctx context.Context, b *domainbooking.Booking) {
	evs := b.PendingEvents()
	if len(evs) == 0 {
		return
	}
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, evs); err != nil {
		if s.Logger != nil {
			s.Logger.Error("outbox record failed", "booking_id", b.ID, "error", err)
		}
		return
	}
	b.ClearEvents()
}

func (s *Service) lineOAURL() string {
	if s.LineOAID == "" {
		return ""
	}
	return "https://line.me/R/oaid/" + s.LineOAID
}

// IsNotFound unifies repository not-found checks for handlers.
func IsNotFound(err error) bool {
	return errors.Is(err, domainbooking.ErrNotFound)
}
