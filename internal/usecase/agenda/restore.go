package agenda

import (
	"context"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type RestoreAppointment struct {
	d Deps
}

func NewRestoreAppointment(d Deps) *RestoreAppointment {
	return &RestoreAppointment{d: d}
}

// Execute brings a cancelled appointment back. Its time must still be free:
// once restored it occupies the agenda again.
func (uc *RestoreAppointment) Execute(
	ctx context.Context,
	actor Actor,
	ref AppointmentRef,
	ui dialog.UI,
) (models.DateRange, error) {

	ap, err := uc.d.findAppointment(ctx, ref.Date, ref.ID)
	if err != nil {
		return models.DateRange{}, err
	}

	if err := schedule.Restore(ap, uc.d.Clock.Now()); err != nil {
		return models.DateRange{}, err
	}

	day, err := uc.d.Agenda.Fresh(ctx, ap.Date)
	if err != nil {
		return models.DateRange{}, err
	}
	day.Appointments = without(day.Appointments, ap.ID)

	if v := uc.d.checker().CheckOccupancy(ap.Date, ap.Span(), day); !v.Accepted() {
		uc.d.Metrics.Conflict("restore", string(v.Reason))
		return models.DateRange{}, v.Err()
	}

	if err := uc.d.Backend.RestoreAppointment(ctx, ap.ID); err != nil {
		return models.DateRange{}, err
	}

	affected := models.SingleDay(ap.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	uc.d.record(actor, "appointment_restored", "appointment", ap.ID, nil)
	ui.Notify(dialog.Success("Turno restaurado correctamente"))

	return affected, nil
}
