package schedule

import (
	"time"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// ===============================
// Domain Actions
// ===============================
//
// The backend owns the state change; these checks run before the call is
// issued so obviously invalid transitions never leave the dashboard.

func StartsAt(ap models.Appointment, loc *time.Location) time.Time {
	return ap.StartTime.On(ap.Date, loc)
}

func Cancel(ap models.Appointment) error {
	return CanCancel(Status(ap.Status))
}

func Complete(ap models.Appointment) error {
	return CanComplete(Status(ap.Status))
}

func Start(ap models.Appointment) error {
	return CanStart(Status(ap.Status))
}

// Restore only brings back cancelled appointments that have not started yet.
func Restore(ap models.Appointment, now time.Time) error {
	if err := CanRestore(Status(ap.Status)); err != nil {
		return err
	}
	if !StartsAt(ap, now.Location()).After(now) {
		return httperr.ErrValidation("appointment_in_past", "No se puede restablecer un turno pasado.")
	}
	return nil
}

// IsRestorable mirrors Restore as a flag for list views.
func IsRestorable(ap models.Appointment, now time.Time) bool {
	return Restore(ap, now) == nil
}
