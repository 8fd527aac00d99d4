package schedule

import (
	"time"

	"cloud.google.com/go/civil"
)

// CalendarDay is one cell of a month picker.
type CalendarDay struct {
	Date       civil.Date `json:"date"`
	InMonth    bool       `json:"in_month"`
	Past       bool       `json:"past"`
	Today      bool       `json:"today"`
	Selectable bool       `json:"selectable"`
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// MonthGrid lays out the whole weeks that cover year/month, starting each row
// on weekStart.
func MonthGrid(year int, month time.Month, weekStart time.Weekday, today civil.Date) [][]CalendarDay {
	first := civil.Date{Year: year, Month: month, Day: 1}
	last := civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))

	lead := (int(weekday(first)) - int(weekStart) + 7) % 7
	trail := (int(weekStart) + 6 - int(weekday(last)) + 7) % 7

	return rows(first.AddDays(-lead), last.AddDays(trail), month, today)
}

// FixedMonthGrid always returns 6 rows of 7 days so the picker keeps its size
// from one month to the next.
func FixedMonthGrid(year int, month time.Month, weekStart time.Weekday, today civil.Date) [][]CalendarDay {
	first := civil.Date{Year: year, Month: month, Day: 1}
	lead := (int(weekday(first)) - int(weekStart) + 7) % 7
	start := first.AddDays(-lead)

	return rows(start, start.AddDays(41), month, today)
}

func rows(from, to civil.Date, month time.Month, today civil.Date) [][]CalendarDay {
	var out [][]CalendarDay
	var week []CalendarDay
	for d := from; !d.After(to); d = d.AddDays(1) {
		day := CalendarDay{
			Date:    d,
			InMonth: d.Month == month,
			Past:    d.Before(today),
			Today:   d == today,
		}
		day.Selectable = day.InMonth && !day.Past
		week = append(week, day)
		if len(week) == 7 {
			out = append(out, week)
			week = nil
		}
	}
	return out
}
