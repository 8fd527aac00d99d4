package agenda

import (
	"context"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type CompleteAppointment struct {
	d Deps
}

func NewCompleteAppointment(d Deps) *CompleteAppointment {
	return &CompleteAppointment{d: d}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	actor Actor,
	ref AppointmentRef,
	ui dialog.UI,
) (models.DateRange, error) {

	ap, err := uc.d.findAppointment(ctx, ref.Date, ref.ID)
	if err != nil {
		return models.DateRange{}, err
	}

	if err := schedule.Complete(ap); err != nil {
		return models.DateRange{}, err
	}

	if err := uc.d.Backend.CompleteAppointment(ctx, ap.ID); err != nil {
		return models.DateRange{}, err
	}

	affected := models.SingleDay(ap.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	uc.d.record(actor, "appointment_completed", "appointment", ap.ID, nil)
	ui.Notify(dialog.Success("Turno completado"))

	return affected, nil
}

type StartAppointment struct {
	d Deps
}

func NewStartAppointment(d Deps) *StartAppointment {
	return &StartAppointment{d: d}
}

// Execute marks a pending appointment as in progress.
func (uc *StartAppointment) Execute(
	ctx context.Context,
	actor Actor,
	ref AppointmentRef,
	ui dialog.UI,
) (models.DateRange, error) {

	ap, err := uc.d.findAppointment(ctx, ref.Date, ref.ID)
	if err != nil {
		return models.DateRange{}, err
	}

	if err := schedule.Start(ap); err != nil {
		return models.DateRange{}, err
	}

	if err := uc.d.Backend.StartAppointment(ctx, ap.ID); err != nil {
		return models.DateRange{}, err
	}

	affected := models.SingleDay(ap.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	uc.d.record(actor, "appointment_started", "appointment", ap.ID, nil)
	ui.Notify(dialog.Success("Turno en curso"))

	return affected, nil
}
