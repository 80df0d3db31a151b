package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"villabook/internal/app/outbox"
	"villabook/internal/domain/house"
	"villabook/internal/domain/ledger"
	"villabook/internal/domain/shared/daterange"
	"villabook/internal/domain/shared/events"
)

var (
	ErrCodeRequired = errors.New("calendar: house code required")
	ErrInvalidDate  = errors.New("calendar: dates must be YYYY-MM-DD")
)

// Service owns every read and write against the per-house availability
// ledger. All writers funnel through BulkUpdate so the merge semantics
// live in exactly one place.
type Service struct {
	Houses  house.Repository
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

// Entries returns the date map for one house code. An unknown code is a
// valid empty calendar on reads, not an error.
func (s *Service) Entries(ctx context.Context, code string) (ledger.Entries, error) {
	h, err := s.Houses.ByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, house.ErrCodeNotFound) || errors.Is(err, house.ErrNotFound) {
			return ledger.Entries{}, nil
		}
		return nil, err
	}
	if h.Prices == nil {
		return ledger.Entries{}, nil
	}
	return h.Prices.Clone(), nil
}

// AllEntries returns every coded house's date map for cross-house
// calendar views. Houses without a code are skipped.
func (s *Service) AllEntries(ctx context.Context) (map[string]ledger.Entries, error) {
	houses, err := s.Houses.List(ctx, house.SearchParams{IncludeAll: true})
	if err != nil {
		return nil, err
	}
	out := make(map[string]ledger.Entries, len(houses))
	for _, h := range houses {
		if h.Code == "" {
			continue
		}
		if h.Prices == nil {
			out[h.Code] = ledger.Entries{}
			continue
		}
		out[h.Code] = h.Prices.Clone()
	}
	return out, nil
}

// BulkUpdateParams is one admin or lifecycle-driven multi-date edit.
// Status follows the wire contract: "available" releases, "price-only"
// sets a price without touching status, anything else (default "booked")
// marks the dates.
type BulkUpdateParams struct {
	Code      string
	Dates     []string
	Status    string
	Price     *int64
	BookingID string
}

// BulkUpdate validates params, resolves them to a single ledger op and
// applies it atomically against the house document. The full updated map
// is returned.
func (s *Service) BulkUpdate(ctx context.Context, params BulkUpdateParams) (ledger.Entries, error) {
	code := strings.TrimSpace(params.Code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if len(params.Dates) == 0 {
		return nil, ledger.ErrNoDates
	}
	for _, d := range params.Dates {
		if _, err := daterange.ParseKey(d); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}

	op, err := resolveOp(params)
	if err != nil {
		return nil, err
	}

	updated, err := s.Houses.MutatePrices(ctx, code, func(entries ledger.Entries) (ledger.Entries, error) {
		return ledger.Apply(entries, params.Dates, op)
	})
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, ledger.CalendarUpdated{
		HouseCode: code,
		Dates:     append([]string(nil), params.Dates...),
		Mode:      op.Mode,
		Status:    op.Status,
		At:        time.Now().UTC(),
	})
	if s.Logger != nil {
		s.Logger.Info("calendar bulk update", "code", code, "dates", len(params.Dates), "mode", op.Mode, "status", op.Status)
	}
	return updated, nil
}

// MarkRange marks every night of a stay with a status on behalf of the
// booking lifecycle.
func (s *Service) MarkRange(ctx context.Context, code string, dr daterange.DateRange, status ledger.Status, bookingID string) (ledger.Entries, error) {
	return s.BulkUpdate(ctx, BulkUpdateParams{
		Code:      code,
		Dates:     dr.Keys(),
		Status:    string(status),
		BookingID: bookingID,
	})
}

// ReleaseRange frees every night of a stay, keeping standalone prices.
func (s *Service) ReleaseRange(ctx context.Context, code string, dr daterange.DateRange) (ledger.Entries, error) {
	return s.BulkUpdate(ctx, BulkUpdateParams{
		Code:   code,
		Dates:  dr.Keys(),
		Status: string(ledger.StatusAvailable),
	})
}

func resolveOp(params BulkUpdateParams) (ledger.BulkOp, error) {
	switch strings.ToLower(strings.TrimSpace(params.Status)) {
	case string(ledger.StatusAvailable):
		return ledger.BulkOp{Mode: ledger.ModeRelease}, nil
	case string(ledger.ModePriceOnly):
		if params.Price == nil || *params.Price <= 0 {
			return ledger.BulkOp{}, ledger.ErrInvalidPrice
		}
		return ledger.BulkOp{Mode: ledger.ModePriceOnly, Price: params.Price}, nil
	default:
		status := ledger.NormalizeStatus(params.Status)
		if status == ledger.StatusAvailable {
			status = ledger.StatusBooked
		}
		if params.Price != nil && *params.Price <= 0 {
			return ledger.BulkOp{}, ledger.ErrInvalidPrice
		}
		return ledger.BulkOp{
			Mode:      ledger.ModeSetStatus,
			Status:    status,
			Price:     params.Price,
			BookingID: params.BookingID,
		}, nil
	}
}

func (s *Service) recordEvent(ctx context.Context, ev events.DomainEvent) {
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, []events.DomainEvent{ev}); err != nil && s.Logger != nil {
		s.Logger.Error("outbox record failed", "event", ev.EventName(), "error", err)
	}
}
