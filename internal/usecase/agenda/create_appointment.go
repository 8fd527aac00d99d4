package agenda

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	Date civil.Date
	Time models.TimeOfDay

	Name     string
	LastName string
	Phone    string

	Service models.Service
}

func (in CreateAppointmentInput) Validate() error {
	return validators.First(
		validators.Required("name", in.Name),
		validators.Name("name", in.Name),
		validators.Required("last_name", in.LastName),
		validators.Name("last_name", in.LastName),
		validators.Required("phone", in.Phone),
		validators.Digits("phone", in.Phone),
	)
}

// ErrSlotTaken is returned when the backend no longer lists the chosen start,
// usually because another booking got there first.
var ErrSlotTaken = httperr.ErrConflict("slot_taken", "El horario seleccionado ya no está disponible.")

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	d Deps
}

func NewCreateAppointment(d Deps) *CreateAppointment {
	return &CreateAppointment{d: d}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	actor Actor,
	in CreateAppointmentInput,
) (*models.Appointment, models.DateRange, error) {

	// --------------------------------------------------
	// 1️⃣ Form
	// --------------------------------------------------
	if err := in.Validate(); err != nil {
		return nil, models.DateRange{}, err
	}

	duration := in.Service.DurationMin
	if duration <= 0 {
		duration = uc.d.Hours.SlotMinutes
	}
	span := models.Interval{Start: in.Time, End: in.Time.Add(duration)}

	// --------------------------------------------------
	// 2️⃣ Conflicts against what the backend has right now
	// --------------------------------------------------
	day, err := uc.d.Agenda.Fresh(ctx, in.Date)
	if err != nil {
		return nil, models.DateRange{}, err
	}

	if v := uc.d.checker().CheckAppointment(in.Date, span, day, uc.d.Clock.Now()); !v.Accepted() {
		uc.d.Metrics.Conflict("appointment", string(v.Reason))
		return nil, models.DateRange{}, v.Err()
	}

	// --------------------------------------------------
	// 3️⃣ The backend's own slot list has to agree
	// --------------------------------------------------
	view, err := uc.d.Backend.Availability(ctx, in.Date)
	if err != nil {
		return nil, models.DateRange{}, err
	}
	if !view.Offers(in.Time) {
		uc.d.Metrics.Conflict("appointment", "backend-unavailable")
		uc.d.Agenda.Invalidate(ctx, models.SingleDay(in.Date))
		return nil, models.DateRange{}, ErrSlotTaken
	}

	// --------------------------------------------------
	// 4️⃣ Create
	// --------------------------------------------------
	created, err := uc.d.Backend.CreateAppointment(ctx, schedule.NewAppointment{
		Name:      in.Name,
		LastName:  in.LastName,
		Phone:     in.Phone,
		ServiceID: in.Service.ID,
		Date:      in.Date,
		Time:      in.Time,
	})
	if err != nil {
		return nil, models.DateRange{}, err
	}

	affected := models.SingleDay(in.Date)
	uc.d.Agenda.Invalidate(ctx, affected)

	// --------------------------------------------------
	// 5️⃣ Audit
	// --------------------------------------------------
	var id uint
	if created != nil {
		id = created.ID
	}
	uc.d.record(actor, "appointment_created", "appointment", id, map[string]any{
		"date":    in.Date.String(),
		"time":    in.Time.String(),
		"service": in.Service.Name,
	})

	return created, affected, nil
}
