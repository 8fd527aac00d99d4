package agenda

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/audit"
	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

// Deps is shared by every agenda use case.
type Deps struct {
	Backend    schedule.Backend
	Agenda     *cache.Agenda
	Audit      *audit.Dispatcher
	Clock      timezone.Clock
	Hours      schedule.BusinessHours
	MinAdvance time.Duration
	Metrics    *metrics.Collector
}

func (d Deps) checker() schedule.Checker {
	return schedule.NewChecker(d.Hours, d.MinAdvance)
}

func (d Deps) evaluator() schedule.Evaluator {
	return schedule.NewEvaluator(d.Hours, d.MinAdvance)
}

// Actor is the operator behind a call, for the audit trail.
type Actor struct {
	UserID   uint
	Username string
}

func (d Deps) record(actor Actor, action, entity string, id uint, meta any) {
	uid := actor.UserID
	d.Audit.Dispatch(audit.Event{
		UserID:   &uid,
		Username: actor.Username,
		Action:   action,
		Entity:   entity,
		EntityID: &id,
		Metadata: meta,
	})
}

var ErrNotConfirmed = httperr.ErrValidation("confirmation_required", "La operación requiere confirmación.")

// findAppointment looks id up on date, going back to the backend once when
// the cached day does not have it.
func (d Deps) findAppointment(ctx context.Context, date civil.Date, id uint) (models.Appointment, error) {
	day, err := d.Agenda.Day(ctx, date)
	if err != nil {
		return models.Appointment{}, err
	}
	if ap, ok := byID(day.Appointments, id); ok {
		return ap, nil
	}

	day, err = d.Agenda.Fresh(ctx, date)
	if err != nil {
		return models.Appointment{}, err
	}
	if ap, ok := byID(day.Appointments, id); ok {
		return ap, nil
	}
	return models.Appointment{}, httperr.ErrValidation("appointment_not_found", "Turno no encontrado.")
}

func byID(aps []models.Appointment, id uint) (models.Appointment, bool) {
	for _, ap := range aps {
		if ap.ID == id {
			return ap, true
		}
	}
	return models.Appointment{}, false
}

func without(aps []models.Appointment, id uint) []models.Appointment {
	out := make([]models.Appointment, 0, len(aps))
	for _, ap := range aps {
		if ap.ID != id {
			out = append(out, ap)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
