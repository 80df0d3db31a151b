package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateKeyLayout is the canonical calendar-day key format used by the
// availability ledger. No time component, no timezone offset.
const DateKeyLayout = "2006-01-02"

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: truncateToDay(checkIn), CheckOut: truncateToDay(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two canonical YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseKey(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseKey(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// ParseKey parses a single canonical date-key.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Keys returns the ordered date-keys covered by the range, checkin
// inclusive, checkout exclusive. An inverted or empty range yields nil.
func (dr DateRange) Keys() []string {
	if dr.Validate() != nil {
		return nil
	}
	var keys []string
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateKeyLayout))
	}
	return keys
}

// Nights is the number of calendar nights; equals len(Keys()).
func (dr DateRange) Nights() int {
	if dr.Validate() != nil {
		return 0
	}
	nights := 0
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		nights++
	}
	return nights
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = truncateToDay(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// truncateToDay pins a timestamp to its UTC calendar day so that key
// generation is stable across DST boundaries and caller timezones.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
