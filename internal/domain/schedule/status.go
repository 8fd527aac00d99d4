package schedule

import (
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether ap still occupies its time on the agenda.
func IsActive(ap models.Appointment) bool {
	return Status(ap.Status) != StatusCancelled
}

// ===============================
// Validations
// ===============================

// CanCancel: only appointments that have not been served can be cancelled.
func CanCancel(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrValidation("invalid_state", "El turno no puede ser cancelado.")
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrValidation("invalid_state", "El turno no puede ser completado.")
	}
	return nil
}

func CanStart(current Status) error {
	if current != StatusPending {
		return httperr.ErrValidation("invalid_state", "El turno no puede pasar a en curso.")
	}
	return nil
}

func CanRestore(current Status) error {
	if current != StatusCancelled {
		return httperr.ErrValidation("invalid_state", "Solo se pueden restablecer turnos cancelados.")
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
