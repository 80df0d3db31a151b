package ledger

import (
	"errors"
	"strings"
)

var (
	ErrInvalidPrice = errors.New("ledger: price must be positive")
	ErrNoDates      = errors.New("ledger: at least one date required")
)

// Status is the availability state of one calendar day. Absence of an
// entry (or an entry holding only a price) means the day is available;
// callers should never rely on that storage detail and instead read
// Entry.EffectiveStatus.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusBooked    Status = "booked"
)

// NormalizeStatus collapses the legacy aliases "confirmed" and "closed"
// to the canonical booked state. Unknown values pass through unchanged so
// operator-defined statuses survive round trips.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(StatusAvailable):
		return StatusAvailable
	case string(StatusPending):
		return StatusPending
	case string(StatusBooked), "confirmed", "closed":
		return StatusBooked
	default:
		return Status(strings.TrimSpace(raw))
	}
}

// Entry is the stored state of one date-key within a house ledger.
// A zero Entry is logically empty and must not be kept in the map.
type Entry struct {
	Status    Status `bson:"status,omitempty" json:"status,omitempty"`
	Price     int64  `bson:"price,omitempty" json:"price,omitempty"`
	BookingID string `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
}

// EffectiveStatus resolves the implicit-available storage optimization
// into the explicit tri-state the API exposes.
func (e Entry) EffectiveStatus() Status {
	if e.Status == "" {
		return StatusAvailable
	}
	return NormalizeStatus(string(e.Status))
}

// Blocked reports whether the day is held by a pending or booked-class
// status.
func (e Entry) Blocked() bool {
	switch e.EffectiveStatus() {
	case StatusAvailable:
		return false
	default:
		return true
	}
}

func (e Entry) empty() bool {
	return e.Status == "" && e.Price <= 0 && e.BookingID == ""
}

// Entries is the per-house mapping from date-key to entry, persisted as
// the "prices" field of the house document.
type Entries map[string]Entry

// Clone returns a copy safe to mutate.
func (m Entries) Clone() Entries {
	out := make(Entries, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Mode selects how a bulk update merges into existing entries.
type Mode string

const (
	// ModeRelease frees the dates. A retained positive price survives as
	// a price-only entry; otherwise the entry is removed.
	ModeRelease Mode = "release"
	// ModePriceOnly sets the nightly price and leaves status and booking
	// reference untouched.
	ModePriceOnly Mode = "price-only"
	// ModeSetStatus marks the dates with a status (default booked) and an
	// optional booking reference. Existing prices are preserved unless
	// the op carries an explicit price.
	ModeSetStatus Mode = "set-status"
)

// BulkOp describes one bulk update applied uniformly to a set of dates.
type BulkOp struct {
	Mode      Mode
	Status    Status
	Price     *int64
	BookingID string
}

// Apply merges op into entries for every date in dates, in place, and
// returns the map. This is the only merge path for every writer: booking
// create/confirm/cancel, admin blocks and admin price edits all go
// through here so the per-date semantics cannot diverge.
func Apply(entries Entries, dates []string, op BulkOp) (Entries, error) {
	if len(dates) == 0 {
		return entries, ErrNoDates
	}
	if op.Price != nil && *op.Price <= 0 {
		return entries, ErrInvalidPrice
	}
	if entries == nil {
		entries = make(Entries)
	}
	for _, date := range dates {
		prev := entries[date]
		switch op.Mode {
		case ModeRelease:
			if prev.Price > 0 {
				entries[date] = Entry{Price: prev.Price}
			} else {
				delete(entries, date)
			}
		case ModePriceOnly:
			next := prev
			if op.Price != nil {
				next.Price = *op.Price
			}
			if next.empty() {
				delete(entries, date)
				continue
			}
			entries[date] = next
		default:
			status := NormalizeStatus(string(op.Status))
			if status == StatusAvailable {
				// set-status with available degrades to a release
				if prev.Price > 0 {
					entries[date] = Entry{Price: prev.Price}
				} else {
					delete(entries, date)
				}
				continue
			}
			next := Entry{
				Status:    status,
				Price:     prev.Price,
				BookingID: op.BookingID,
			}
			if op.Price != nil {
				next.Price = *op.Price
			}
			entries[date] = next
		}
	}
	return entries, nil
}
