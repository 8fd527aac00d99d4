package schedule

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// DefaultMinAdvance is how far ahead of now a booking has to start.
const DefaultMinAdvance = 30 * time.Minute

type Reason string

const (
	ReasonDateFullyBlocked    Reason = "date-fully-blocked"
	ReasonOverlapsBlock       Reason = "overlaps-block"
	ReasonOverlapsAppointment Reason = "overlaps-appointment"
	ReasonTooSoon             Reason = "too-soon"
	ReasonPastDate            Reason = "past-date"
	ReasonOutsideHours        Reason = "outside-business-hours"
)

var reasonMessages = map[Reason]string{
	ReasonDateFullyBlocked:    "Esta fecha ya está completamente bloqueada.",
	ReasonOverlapsBlock:       "El horario seleccionado se superpone con un bloqueo existente.",
	ReasonOverlapsAppointment: "El horario seleccionado se superpone con un turno existente.",
	ReasonTooSoon:             "Se requiere al menos 30 minutos de anticipación para agendar un turno.",
	ReasonPastDate:            "No se pueden usar fechas u horarios pasados.",
	ReasonOutsideHours:        "El horario está fuera del horario de atención.",
}

func (r Reason) Message() string {
	return reasonMessages[r]
}

// Verdict is the outcome of a conflict check. The zero value is accepted.
type Verdict struct {
	Reason Reason `json:"reason,omitempty"`
}

func (v Verdict) Accepted() bool {
	return v.Reason == ""
}

// Err converts a rejection into a conflict error; nil when accepted.
func (v Verdict) Err() error {
	if v.Accepted() {
		return nil
	}
	return httperr.ErrConflict(string(v.Reason), v.Reason.Message())
}

func reject(r Reason) Verdict {
	return Verdict{Reason: r}
}

// Agenda is what is already on a date when a proposal is checked.
type Agenda struct {
	Appointments []models.Appointment
	Blocks       []models.Block
}

type Checker struct {
	Hours      BusinessHours
	MinAdvance time.Duration
}

func NewChecker(hours BusinessHours, minAdvance time.Duration) Checker {
	return Checker{Hours: hours, MinAdvance: minAdvance}
}

// CheckBlock decides whether a new block fits on its date.
func (c Checker) CheckBlock(b models.Block, existing Agenda, now time.Time) Verdict {
	blocks := blocksOn(existing.Blocks, b.Date)
	active := activeOn(existing.Appointments, b.Date)

	if hasFullDay(blocks) {
		return reject(ReasonDateFullyBlocked)
	}

	today := civil.DateOf(now)
	if b.Date.Before(today) {
		return reject(ReasonPastDate)
	}
	if b.Date == today && b.IsPartial() && !b.Span.End.On(b.Date, now.Location()).After(now) {
		return reject(ReasonPastDate)
	}

	if b.FullDay {
		if len(blocks) > 0 {
			return reject(ReasonOverlapsBlock)
		}
		if len(active) > 0 {
			return reject(ReasonOverlapsAppointment)
		}
		return Verdict{}
	}

	if b.Span == nil {
		return reject(ReasonOverlapsBlock)
	}

	for _, other := range blocks {
		if other.IsPartial() && b.Span.Overlaps(*other.Span) {
			return reject(ReasonOverlapsBlock)
		}
	}
	for _, ap := range active {
		if b.Span.Overlaps(ap.Span()) {
			return reject(ReasonOverlapsAppointment)
		}
	}

	return Verdict{}
}

// CheckAppointment decides whether span on date can still be booked.
func (c Checker) CheckAppointment(date civil.Date, span models.Interval, existing Agenda, now time.Time) Verdict {
	if hasFullDay(blocksOn(existing.Blocks, date)) {
		return reject(ReasonDateFullyBlocked)
	}

	start := span.Start.On(date, now.Location())
	if date.Before(civil.DateOf(now)) || start.Before(now) {
		return reject(ReasonPastDate)
	}

	if !c.Hours.Window().Contains(span.Start) {
		return reject(ReasonOutsideHours)
	}

	if start.Before(now.Add(c.MinAdvance)) {
		return reject(ReasonTooSoon)
	}

	return c.CheckOccupancy(date, span, existing)
}

// CheckOccupancy only looks at what already holds the time: blocks and active
// appointments. Restoring a cancelled appointment goes through here.
func (c Checker) CheckOccupancy(date civil.Date, span models.Interval, existing Agenda) Verdict {
	blocks := blocksOn(existing.Blocks, date)
	if hasFullDay(blocks) {
		return reject(ReasonDateFullyBlocked)
	}

	for _, b := range blocks {
		if b.IsPartial() && span.Overlaps(*b.Span) {
			return reject(ReasonOverlapsBlock)
		}
	}
	for _, ap := range activeOn(existing.Appointments, date) {
		if span.Overlaps(ap.Span()) {
			return reject(ReasonOverlapsAppointment)
		}
	}

	return Verdict{}
}

// PendingIn lists the active appointments of date that a block over span
// would hit. A nil span stands for the whole day.
func PendingIn(appointments []models.Appointment, date civil.Date, span *models.Interval) []models.Appointment {
	var out []models.Appointment
	for _, ap := range activeOn(appointments, date) {
		if span == nil || span.Overlaps(ap.Span()) {
			out = append(out, ap)
		}
	}
	return out
}

func blocksOn(blocks []models.Block, d civil.Date) []models.Block {
	var out []models.Block
	for _, b := range blocks {
		if b.Date == d {
			out = append(out, b)
		}
	}
	return out
}

func activeOn(aps []models.Appointment, d civil.Date) []models.Appointment {
	var out []models.Appointment
	for _, ap := range aps {
		if ap.Date == d && IsActive(ap) {
			out = append(out, ap)
		}
	}
	return out
}

func hasFullDay(blocks []models.Block) bool {
	for _, b := range blocks {
		if b.FullDay {
			return true
		}
	}
	return false
}
