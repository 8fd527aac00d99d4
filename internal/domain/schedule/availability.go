package schedule

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type Classification string

const (
	ClassNoAppointments  Classification = "no-appointments"
	ClassHasAvailability Classification = "has-appointments-available"
	ClassFull            Classification = "full"
	ClassPartialBlock    Classification = "partially-blocked"
	ClassFullyBlocked    Classification = "fully-blocked"
)

type DayInput struct {
	Date         civil.Date
	Appointments []models.Appointment
	Blocks       []models.Block
	Now          time.Time
	// Duration is how many minutes a booking needs; zero means one slot.
	Duration int
}

type DayAvailability struct {
	Date             civil.Date         `json:"date"`
	Classification   Classification     `json:"classification"`
	PartiallyBlocked bool               `json:"partially_blocked"`
	Past             bool               `json:"past"`
	Capacity         int                `json:"capacity"`
	BlockedSlots     int                `json:"blocked_slots"`
	Booked           int                `json:"booked"`
	Slots            []models.TimeOfDay `json:"slots"`
	Bookable         []models.TimeOfDay `json:"bookable"`
	Blocks           []models.Block     `json:"blocks"`
}

// Badge is the single label a calendar cell shows: a full-day block wins,
// then a partial block unless the day is already full.
func (d DayAvailability) Badge() Classification {
	if d.Classification == ClassFullyBlocked {
		return ClassFullyBlocked
	}
	if d.PartiallyBlocked && d.Classification != ClassFull {
		return ClassPartialBlock
	}
	return d.Classification
}

func (d DayAvailability) IsBookable(t models.TimeOfDay) bool {
	for _, s := range d.Bookable {
		if s == t {
			return true
		}
	}
	return false
}

// Evaluator derives a day's classification and slot lists. It never mutates
// its inputs.
type Evaluator struct {
	Hours      BusinessHours
	MinAdvance time.Duration
}

func NewEvaluator(hours BusinessHours, minAdvance time.Duration) Evaluator {
	return Evaluator{Hours: hours, MinAdvance: minAdvance}
}

func (e Evaluator) Evaluate(in DayInput) DayAvailability {
	out := DayAvailability{
		Date:     in.Date,
		Slots:    []models.TimeOfDay{},
		Bookable: []models.TimeOfDay{},
		Blocks:   []models.Block{},
	}

	var partial []models.Interval
	for _, b := range in.Blocks {
		if b.Date != in.Date {
			continue
		}
		out.Blocks = append(out.Blocks, b)
		if b.FullDay {
			out.Classification = ClassFullyBlocked
		} else if b.IsPartial() {
			partial = append(partial, *b.Span)
		}
	}

	var active []models.Appointment
	for _, ap := range in.Appointments {
		if ap.Date == in.Date && IsActive(ap) {
			active = append(active, ap)
		}
	}
	out.Booked = len(active)

	today := civil.DateOf(in.Now)
	out.Past = in.Date.Before(today)

	if out.Classification == ClassFullyBlocked {
		return out
	}

	out.PartiallyBlocked = len(partial) > 0
	out.BlockedSlots = BlockedSlotCount(partial, e.Hours.step())

	out.Capacity = e.Hours.TotalSlots() - out.BlockedSlots
	if out.Capacity < 0 {
		out.Capacity = 0
	}

	switch {
	case out.Booked >= out.Capacity:
		out.Classification = ClassFull
	case out.Booked == 0:
		out.Classification = ClassNoAppointments
	default:
		out.Classification = ClassHasAvailability
	}

	if out.Past {
		return out
	}

	loc := in.Now.Location()
	earliest := in.Now.Add(e.MinAdvance)

	for _, s := range e.Hours.Starts() {
		at := s.On(in.Date, loc)
		if at.Before(in.Now) {
			continue
		}
		out.Slots = append(out.Slots, s)

		if at.Before(earliest) {
			continue
		}
		if e.occupied(e.need(s, in.Duration), partial, active) {
			continue
		}
		out.Bookable = append(out.Bookable, s)
	}

	return out
}

// need is the time a booking starting at s takes up.
func (e Evaluator) need(s models.TimeOfDay, minutes int) models.Interval {
	if minutes <= 0 {
		return e.Hours.SlotOf(s)
	}
	return models.Interval{Start: s, End: s.Add(minutes)}
}

func (e Evaluator) occupied(slot models.Interval, partial []models.Interval, active []models.Appointment) bool {
	for _, p := range partial {
		if slot.Overlaps(p) {
			return true
		}
	}
	for _, ap := range active {
		if slot.Overlaps(ap.Span()) {
			return true
		}
	}
	return false
}

// BlockedSlotCount sums whole slots covered by the partial spans. Overlapping
// spans are merged first so shared minutes are only subtracted once.
func BlockedSlotCount(spans []models.Interval, slotMinutes int) int {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	total := 0
	for _, m := range MergeIntervals(spans) {
		total += m.Minutes() / slotMinutes
	}
	return total
}

// MergeIntervals returns the union of spans as disjoint, sorted intervals.
// Invalid spans are dropped.
func MergeIntervals(spans []models.Interval) []models.Interval {
	valid := make([]models.Interval, 0, len(spans))
	for _, s := range spans {
		if s.Valid() {
			valid = append(valid, s)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	var out []models.Interval
	for _, s := range valid {
		if n := len(out); n > 0 && s.Start <= out[n-1].End {
			if s.End > out[n-1].End {
				out[n-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
