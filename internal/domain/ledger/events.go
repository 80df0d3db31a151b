package ledger

import "time"

// CalendarUpdated is raised after a bulk update lands on a house ledger.
type CalendarUpdated struct {
	HouseCode string
	Dates     []string
	Mode      Mode
	Status    Status
	At        time.Time
}

func (e CalendarUpdated) EventName() string     { return "calendar.updated" }
func (e CalendarUpdated) AggregateID() string   { return e.HouseCode }
func (e CalendarUpdated) OccurredAt() time.Time { return e.At }
