package policies

import (
	"context"

	"villabook/internal/domain/booking"
)

// Friend-check outcomes. LINE's push API returns 200 even for users who
// never added the official account, so the friend check is the only
// signal that a message was actually delivered.
const (
	FriendStatusFriend    = "friend"
	FriendStatusNotFriend = "not-friend"
	FriendStatusUnknown   = "unknown"
)

// DeliveryResult reports one push attempt.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	RequestID  string
	Error      string
}

// Notifier sends guest-facing booking messages. Implementations must
// bound their own timeouts; callers treat every outcome as best-effort.
type Notifier interface {
	FriendStatus(ctx context.Context, lineID string) string
	PushBookingReceived(ctx context.Context, lineID string, b *booking.Booking) DeliveryResult
	PushStatusUpdate(ctx context.Context, lineID string, b *booking.Booking, status booking.Status) DeliveryResult
}
