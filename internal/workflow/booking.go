package workflow

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
	"github.com/BruksfildServices01/barber-dashboard/internal/validators"
)

type BookingState string

const (
	BookingSelectingDate   BookingState = "selecting_date"
	BookingSelectingTime   BookingState = "selecting_time"
	BookingEnteringContact BookingState = "entering_contact"
	BookingSubmitting      BookingState = "submitting"
	BookingCompleted       BookingState = "completed"
	BookingFailed          BookingState = "failed"
)

type Contact struct {
	Name      string `json:"name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	ServiceID uint   `json:"service_id"`
}

func (c Contact) complete() bool {
	return c.Name != "" && c.LastName != "" && c.Phone != "" && c.ServiceID != 0
}

func (c Contact) validate() error {
	return validators.First(
		validators.Name("name", c.Name),
		validators.Name("last_name", c.LastName),
		validators.Digits("phone", c.Phone),
	)
}

// Failure is the last error shown on the form.
type Failure struct {
	Kind    httperr.Kind `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
}

func failureOf(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: httperr.KindOf(err), Code: httperr.CodeOf(err), Message: httperr.MessageOf(err)}
}

type BookingView struct {
	State   BookingState               `json:"state"`
	Date    *civil.Date                `json:"date,omitempty"`
	Time    *models.TimeOfDay          `json:"time,omitempty"`
	Day     *agenda.AvailabilityOutput `json:"availability,omitempty"`
	Contact Contact                    `json:"contact"`
	Error   *Failure                   `json:"error,omitempty"`
	Created *models.Appointment        `json:"created,omitempty"`
}

type BookingDeps struct {
	Availability *agenda.GetAvailability
	Create       *agenda.CreateAppointment
	Services     *agenda.ListServices
	Clock        timezone.Clock
}

// Booking walks an operator through date, time and contact details and
// books the appointment. Network calls run without the lock held; a result
// that arrives after the date changed or the form was closed is dropped.
type Booking struct {
	deps  BookingDeps
	actor agenda.Actor

	mu      sync.Mutex
	state   BookingState
	date    *civil.Date
	slot    *models.TimeOfDay
	day     *agenda.AvailabilityOutput
	contact Contact
	failure *Failure
	created *models.Appointment
	closed  bool
	epoch   int
}

func NewBooking(deps BookingDeps, actor agenda.Actor) *Booking {
	return &Booking{deps: deps, actor: actor, state: BookingSelectingDate}
}

func (b *Booking) View() BookingView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BookingView{
		State:   b.state,
		Date:    b.date,
		Time:    b.slot,
		Day:     b.day,
		Contact: b.contact,
		Error:   b.failure,
		Created: b.created,
	}
}

// Calendar is the Sunday-first date picker for year/month.
func (b *Booking) Calendar(year int, month time.Month) [][]schedule.CalendarDay {
	return schedule.FixedMonthGrid(year, month, time.Sunday, timezone.Today(b.deps.Clock))
}

// guard checks the form can still be edited; callers hold mu.
func (b *Booking) guard() error {
	if b.closed {
		return ErrClosed
	}
	if b.state == BookingSubmitting {
		return ErrBusy
	}
	if b.state == BookingCompleted {
		return ErrClosed
	}
	return nil
}

// SelectDate loads d and clears any time picked before.
func (b *Booking) SelectDate(ctx context.Context, d civil.Date) error {
	b.mu.Lock()
	if err := b.guard(); err != nil {
		b.mu.Unlock()
		return err
	}
	if b.state != BookingSelectingDate && b.state != BookingSelectingTime {
		b.mu.Unlock()
		return errTransition(string(b.state), "cambiar la fecha")
	}
	if d.Before(timezone.Today(b.deps.Clock)) {
		b.mu.Unlock()
		return schedule.Verdict{Reason: schedule.ReasonPastDate}.Err()
	}
	b.epoch++
	epoch := b.epoch
	b.mu.Unlock()

	day, err := b.deps.Availability.Execute(ctx, d)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if epoch != b.epoch {
		return ErrStale
	}
	if err != nil {
		b.failure = failureOf(err)
		return err
	}
	if day.Classification == schedule.ClassFullyBlocked {
		err := schedule.Verdict{Reason: schedule.ReasonDateFullyBlocked}.Err()
		b.failure = failureOf(err)
		return err
	}

	b.date = &d
	b.day = day
	b.slot = nil
	b.failure = nil
	return nil
}

func (b *Booking) SelectTime(t models.TimeOfDay) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.guard(); err != nil {
		return err
	}
	if b.state != BookingSelectingTime {
		return errTransition(string(b.state), "elegir horario")
	}
	if b.day == nil || !b.day.IsBookable(t) {
		return httperr.ErrValidation("slot_unavailable", "El horario seleccionado no está disponible.")
	}

	b.slot = &t
	b.failure = nil
	return nil
}

func (b *Booking) SetContact(c Contact) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.guard(); err != nil {
		return err
	}
	if b.state != BookingEnteringContact && b.state != BookingFailed {
		return errTransition(string(b.state), "cargar los datos")
	}
	if err := c.validate(); err != nil {
		return err
	}

	b.contact = c
	b.state = BookingEnteringContact
	b.failure = nil
	return nil
}

// Next moves forward when the current step is complete.
func (b *Booking) Next() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.guard(); err != nil {
		return err
	}

	switch b.state {
	case BookingSelectingDate:
		if b.date == nil {
			return httperr.ErrValidation("date_required", "Seleccione una fecha.")
		}
		b.state = BookingSelectingTime
	case BookingSelectingTime:
		if b.slot == nil {
			return httperr.ErrValidation("time_required", "Seleccione un horario.")
		}
		b.state = BookingEnteringContact
	default:
		return errTransition(string(b.state), "avanzar")
	}
	return nil
}

func (b *Booking) Back() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.guard(); err != nil {
		return err
	}

	switch b.state {
	case BookingSelectingTime:
		b.state = BookingSelectingDate
	case BookingEnteringContact:
		b.state = BookingSelectingTime
	case BookingFailed:
		b.state = BookingEnteringContact
	default:
		return errTransition(string(b.state), "volver")
	}
	b.failure = nil
	return nil
}

// Submit revalidates the chosen interval against fresh data and creates the
// appointment. A conflict sends the form back to time selection; a network or
// server failure leaves it in failed with everything kept for a retry.
func (b *Booking) Submit(ctx context.Context, ui dialog.UI) (*models.Appointment, models.DateRange, error) {
	b.mu.Lock()
	if err := b.guard(); err != nil {
		b.mu.Unlock()
		return nil, models.DateRange{}, err
	}
	if b.state != BookingEnteringContact && b.state != BookingFailed {
		b.mu.Unlock()
		return nil, models.DateRange{}, errTransition(string(b.state), "confirmar")
	}
	if !b.contact.complete() {
		b.mu.Unlock()
		return nil, models.DateRange{}, httperr.ErrValidation("contact_required", "Complete nombre, apellido, teléfono y servicio.")
	}

	date, slot, contact := *b.date, *b.slot, b.contact
	b.state = BookingSubmitting
	b.failure = nil
	b.mu.Unlock()

	created, affected, err := b.submit(ctx, date, slot, contact)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, affected, ErrClosed
	}

	switch {
	case err == nil:
		b.state = BookingCompleted
		b.created = created
		b.date, b.slot, b.day = nil, nil, nil
		b.contact = Contact{}
		b.closed = true
		b.mu.Unlock()

		ui.Notify(dialog.Success("Turno agendado exitosamente!"))
		return created, affected, nil

	case httperr.Is(err, httperr.KindConflict):
		b.state = BookingSelectingTime
		b.slot = nil
		b.failure = failureOf(err)
		b.mu.Unlock()

		// the conflict check just refreshed the date, so this is a cache read
		if day, derr := b.deps.Availability.Execute(ctx, date); derr == nil {
			b.mu.Lock()
			if !b.closed && b.date != nil && *b.date == date {
				b.day = day
			}
			b.mu.Unlock()
		}
		ui.Notify(dialog.Error(httperr.MessageOf(err)))
		return nil, models.DateRange{}, err

	case httperr.Is(err, httperr.KindValidation):
		b.state = BookingEnteringContact
		b.failure = failureOf(err)
		b.mu.Unlock()
		return nil, models.DateRange{}, err

	default:
		b.state = BookingFailed
		b.failure = failureOf(err)
		b.mu.Unlock()

		ui.Notify(dialog.Error("Error al agendar el turno. Por favor, intenta nuevamente."))
		return nil, models.DateRange{}, err
	}
}

func (b *Booking) submit(ctx context.Context, date civil.Date, slot models.TimeOfDay, c Contact) (*models.Appointment, models.DateRange, error) {
	svc, err := b.deps.Services.Find(ctx, c.ServiceID)
	if err != nil {
		return nil, models.DateRange{}, err
	}

	return b.deps.Create.Execute(ctx, b.actor, agenda.CreateAppointmentInput{
		Date:     date,
		Time:     slot,
		Name:     c.Name,
		LastName: c.LastName,
		Phone:    c.Phone,
		Service:  svc,
	})
}

// Close discards the form. Calls already in flight finish but their results
// are ignored.
func (b *Booking) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.epoch++
}
