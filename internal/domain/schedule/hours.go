package schedule

import (
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

const DefaultSlotMinutes = 30

// BusinessHours is the fixed daily window the agenda is cut into.
type BusinessHours struct {
	Open        models.TimeOfDay `json:"open"`
	Close       models.TimeOfDay `json:"close"`
	SlotMinutes int              `json:"slot_minutes"`
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:        models.MustTime("09:00"),
		Close:       models.MustTime("22:00"),
		SlotMinutes: DefaultSlotMinutes,
	}
}

// ParseBusinessHours builds the window from HH:MM bounds, as configured.
func ParseBusinessHours(open, close string, slotMinutes int) (BusinessHours, error) {
	o, err := models.ParseTimeOfDay(open)
	if err != nil {
		return BusinessHours{}, err
	}
	c, err := models.ParseTimeOfDay(close)
	if err != nil {
		return BusinessHours{}, err
	}
	if c <= o {
		return BusinessHours{}, httperr.ErrValidation("invalid_business_hours", "El cierre debe ser posterior a la apertura.")
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	return BusinessHours{Open: o, Close: c, SlotMinutes: slotMinutes}, nil
}

func (h BusinessHours) step() int {
	if h.SlotMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return h.SlotMinutes
}

func (h BusinessHours) Window() models.Interval {
	return models.Interval{Start: h.Open, End: h.Close}
}

// Grid lists every label from Open to Close, including Close when it falls on
// the step. Close only ever acts as an end boundary.
func (h BusinessHours) Grid() []models.TimeOfDay {
	if h.Close < h.Open {
		return nil
	}
	step := h.step()
	out := make([]models.TimeOfDay, 0, int(h.Close-h.Open)/step+1)
	for t := h.Open; t <= h.Close; t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// Starts is the grid without the closing boundary: the bookable start times.
func (h BusinessHours) Starts() []models.TimeOfDay {
	grid := h.Grid()
	if n := len(grid); n > 0 && grid[n-1] == h.Close {
		return grid[:n-1]
	}
	return grid
}

func (h BusinessHours) TotalSlots() int {
	return len(h.Starts())
}

func (h BusinessHours) OnGrid(t models.TimeOfDay) bool {
	return t >= h.Open && t <= h.Close && int(t-h.Open)%h.step() == 0
}

// SlotOf is the slot that begins at t.
func (h BusinessHours) SlotOf(t models.TimeOfDay) models.Interval {
	return models.Interval{Start: t, End: t.Add(h.step())}
}

// ValidateSpan checks a partial range picked from the grid.
func (h BusinessHours) ValidateSpan(span models.Interval) error {
	if !h.OnGrid(span.Start) || !h.OnGrid(span.End) {
		return httperr.ErrValidation("invalid_range", "El horario debe estar dentro del horario de atención.")
	}
	if !span.Valid() {
		return httperr.ErrValidation("invalid_range", "La hora fin debe ser posterior a la hora inicio")
	}
	return nil
}

// ===============================
// Day periods
// ===============================

type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

type PeriodSlots struct {
	Period Period             `json:"period"`
	Slots  []models.TimeOfDay `json:"slots"`
}

// Periods groups slots the way the time picker shows them; empty periods are
// left out.
func Periods(slots []models.TimeOfDay) []PeriodSlots {
	buckets := map[Period][]models.TimeOfDay{}
	for _, s := range slots {
		switch {
		case s.Hour() < 12:
			buckets[PeriodMorning] = append(buckets[PeriodMorning], s)
		case s.Hour() < 20:
			buckets[PeriodAfternoon] = append(buckets[PeriodAfternoon], s)
		default:
			buckets[PeriodEvening] = append(buckets[PeriodEvening], s)
		}
	}

	var out []PeriodSlots
	for _, p := range []Period{PeriodMorning, PeriodAfternoon, PeriodEvening} {
		if len(buckets[p]) > 0 {
			out = append(out, PeriodSlots{Period: p, Slots: buckets[p]})
		}
	}
	return out
}
