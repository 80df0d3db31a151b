package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/events"
)

var (
	ErrNotFound     = errors.New("booking: not found")
	ErrInvalidState = errors.New("booking: invalid state transition")
	ErrValidation   = errors.New("booking: invalid input")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts the two admin-settable target states.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: status must be confirmed or cancelled", ErrValidation)
	}
}

// Notification holds LINE delivery bookkeeping. Updating it never fails
// the booking lifecycle; delivery is best-effort.
type Notification struct {
	Sent         bool
	StatusCode   int
	RequestID    string
	Error        string
	FriendStatus string
	SentAt       time.Time
}

// Booking is the authoritative record of a reservation intent. The
// guest, villa and stay fields are fixed at creation; only Status and
// the notification bookkeeping change afterwards.
type Booking struct {
	ID         BookingID
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
	Status     Status
	LineNotify Notification
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

// ListFilter narrows List results; zero values match everything.
type ListFilter struct {
	VillaID string
	Status  Status
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// List returns bookings newest-first by creation time.
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
	// UpdateStatus writes the new status only while the stored record
	// still carries from, so concurrent transitions cannot overwrite a
	// terminal state. A stale from yields ErrInvalidState.
	UpdateStatus(ctx context.Context, id BookingID, from, to Status, at time.Time) error
	UpdateNotification(ctx context.Context, id BookingID, n Notification, at time.Time) error
}

type CreateParams struct {
	ID         BookingID
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
	Now        time.Time
}

func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.VillaID) == "" {
		return nil, fmt.Errorf("%w: villa id required", ErrValidation)
	}
	if params.CheckIn == "" || params.CheckOut == "" {
		return nil, fmt.Errorf("%w: check-in and check-out required", ErrValidation)
	}
	dr, err := daterange.Parse(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if params.Nights <= 0 {
		return nil, fmt.Errorf("%w: nights required", ErrValidation)
	}
	if nights := dr.Nights(); params.Nights != nights {
		return nil, fmt.Errorf("%w: nights %d does not match stay of %d nights", ErrValidation, params.Nights, nights)
	}
	guests := params.Guests
	if guests <= 0 {
		guests = 1
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:         params.ID,
		UserID:     params.UserID,
		UserLineID: params.UserLineID,
		UserName:   params.UserName,
		UserPhone:  params.UserPhone,
		VillaID:    params.VillaID,
		VillaName:  params.VillaName,
		VillaCode:  strings.TrimSpace(params.VillaCode),
		CheckIn:    params.CheckIn,
		CheckOut:   params.CheckOut,
		Nights:     params.Nights,
		Guests:     guests,
		TotalPrice: params.TotalPrice,
		Message:    params.Message,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{BookingID: b.ID, VillaID: b.VillaID, VillaCode: b.VillaCode, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Nights: b.Nights, At: now})
	return b, nil
}

// Range rebuilds the stay interval from the stored date-keys.
func (b *Booking) Range() (daterange.DateRange, error) {
	return daterange.Parse(b.CheckIn, b.CheckOut)
}

// Terminal reports whether no further status transition is allowed.
func (b *Booking) Terminal() bool {
	return b.Status == StatusConfirmed || b.Status == StatusCancelled
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, VillaCode: b.VillaCode, CheckIn: b.CheckIn, CheckOut: b.CheckOut, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(now time.Time) error {
	if b.Terminal() {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, VillaCode: b.VillaCode, CheckIn: b.CheckIn, CheckOut: b.CheckOut, At: b.UpdatedAt})
	return nil
}
