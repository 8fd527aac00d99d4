package agenda

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// AppointmentRef points at one appointment; the backend has no lookup by id,
// so the date travels along.
type AppointmentRef struct {
	Date civil.Date
	ID   uint
}

type CancelAppointment struct {
	d Deps
}

func NewCancelAppointment(d Deps) *CancelAppointment {
	return &CancelAppointment{d: d}
}

// Execute asks the operator first; a declined prompt returns ErrNotConfirmed
// and changes nothing.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	actor Actor,
	ref AppointmentRef,
	ui dialog.UI,
) (models.DateRange, error) {

	ap, err := uc.d.findAppointment(ctx, ref.Date, ref.ID)
	if err != nil {
		return models.DateRange{}, err
	}

	if err := schedule.Cancel(ap); err != nil {
		return models.DateRange{}, err
	}

	ok, err := ui.Confirm(ctx, dialog.Prompt{
		Code:    "cancel_appointment",
		Message: "¿Estás seguro de que deseas cancelar este turno?",
	})
	if err != nil {
		return models.DateRange{}, err
	}
	if !ok {
		return models.DateRange{}, ErrNotConfirmed
	}

	if err := uc.d.Backend.CancelAppointment(ctx, ap.ID); err != nil {
		return models.DateRange{}, err
	}

	affected := models.SingleDay(ap.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	uc.d.record(actor, "appointment_cancelled", "appointment", ap.ID, map[string]string{
		"date": ap.Date.String(),
		"time": ap.StartTime.String(),
	})
	ui.Notify(dialog.Success("Turno cancelado correctamente"))

	return affected, nil
}
