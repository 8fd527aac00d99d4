package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// DateRange is an inclusive range of calendar dates. Every mutation reports
// the range it touched so callers know what to re-query.
type DateRange struct {
	From civil.Date `json:"from"`
	To   civil.Date `json:"to"`
}

func SingleDay(d civil.Date) DateRange {
	return DateRange{From: d, To: d}
}

func MonthRange(year int, month time.Month) DateRange {
	first := civil.Date{Year: year, Month: month, Day: 1}
	last := civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return DateRange{From: first, To: last}
}

func (r DateRange) Valid() bool {
	return r.From.IsValid() && r.To.IsValid() && !r.To.Before(r.From)
}

func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Dates lists every date of the range in order.
func (r DateRange) Dates() []civil.Date {
	if !r.Valid() {
		return nil
	}
	out := make([]civil.Date, 0, r.To.DaysSince(r.From)+1)
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (r DateRange) String() string {
	if r.From == r.To {
		return r.From.String()
	}
	return r.From.String() + ".." + r.To.String()
}
