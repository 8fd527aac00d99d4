// Package fake is an in-memory scheduling backend for tests.
package fake

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

type Backend struct {
	mu sync.Mutex

	Appointments  []models.Appointment
	Blocks        []models.Block
	Notifications []models.Notification
	Catalogue     []models.Service
	Users         map[string]string

	// Fail, when set, is returned by every call whose operation name it maps.
	Fail map[string]error
	// Hook runs before an operation; tests use it to change data mid-flight.
	Hook func(op string)

	Calls  map[string]int
	nextID uint
}

var _ schedule.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		Users:  map[string]string{},
		Fail:   map[string]error{},
		Calls:  map[string]int{},
		nextID: 100,
	}
}

func (b *Backend) enter(op string) error {
	b.mu.Lock()
	hook := b.Hook
	b.Calls[op]++
	err := b.Fail[op]
	b.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	return err
}

func (b *Backend) CallCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Calls[op]
}

func (b *Backend) SetFail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.Fail, op)
		return
	}
	b.Fail[op] = err
}

func (b *Backend) AddAppointment(ap models.Appointment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Appointments = append(b.Appointments, ap)
}

func (b *Backend) AddBlock(blk models.Block) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Blocks = append(b.Blocks, blk)
}

func (b *Backend) Login(_ context.Context, username, password string) (string, models.User, error) {
	if err := b.enter("login"); err != nil {
		return "", models.User{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.Users[username]; !ok || pw != password {
		return "", models.User{}, httperr.ErrValidation("invalid_credentials", "Usuario o contraseña incorrectos.")
	}
	return "token-" + username, models.User{ID: 1, Name: username, Username: username, Role: "admin"}, nil
}

func (b *Backend) ListAppointments(_ context.Context, r models.DateRange) ([]models.Appointment, error) {
	if err := b.enter("list_appointments"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Appointment
	for _, ap := range b.Appointments {
		if r.Contains(ap.Date) {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (b *Backend) AppointmentsOn(_ context.Context, d civil.Date) ([]models.Appointment, error) {
	if err := b.enter("appointments_on"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Appointment
	for _, ap := range b.Appointments {
		if ap.Date == d {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (b *Backend) CreateAppointment(_ context.Context, in schedule.NewAppointment) (*models.Appointment, error) {
	if err := b.enter("create_appointment"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	dur := schedule.DefaultSlotMinutes
	svc := models.Service{ID: in.ServiceID}
	for _, s := range b.Catalogue {
		if s.ID == in.ServiceID {
			svc = s
			dur = s.DurationMin
		}
	}

	b.nextID++
	ap := models.Appointment{
		ID:        b.nextID,
		Date:      in.Date,
		StartTime: in.Time,
		EndTime:   in.Time.Add(dur),
		Client:    models.Client{Name: in.Name, LastName: in.LastName, Phone: in.Phone},
		Service:   svc,
		Status:    string(schedule.InitialStatus()),
	}
	b.Appointments = append(b.Appointments, ap)
	return &ap, nil
}

func (b *Backend) setStatus(op string, id uint, st schedule.Status) error {
	if err := b.enter(op); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Appointments {
		if b.Appointments[i].ID == id {
			b.Appointments[i].Status = string(st)
			return nil
		}
	}
	return httperr.ErrValidation("not_found", "Turno no encontrado")
}

func (b *Backend) CancelAppointment(_ context.Context, id uint) error {
	return b.setStatus("cancel_appointment", id, schedule.StatusCancelled)
}

func (b *Backend) RestoreAppointment(_ context.Context, id uint) error {
	return b.setStatus("restore_appointment", id, schedule.StatusPending)
}

func (b *Backend) CompleteAppointment(_ context.Context, id uint) error {
	return b.setStatus("complete_appointment", id, schedule.StatusCompleted)
}

func (b *Backend) StartAppointment(_ context.Context, id uint) error {
	return b.setStatus("start_appointment", id, schedule.StatusConfirmed)
}

func (b *Backend) Stats(_ context.Context, r models.DateRange) (models.Stats, error) {
	if err := b.enter("stats"); err != nil {
		return models.Stats{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var s models.Stats
	for _, ap := range b.Appointments {
		if !r.Contains(ap.Date) {
			continue
		}
		s.Total++
		switch schedule.Status(ap.Status) {
		case schedule.StatusPending:
			s.Pending++
		case schedule.StatusConfirmed:
			s.Confirmed++
		case schedule.StatusCompleted:
			s.Completed++
		case schedule.StatusCancelled:
			s.Cancelled++
		}
	}
	return s, nil
}

func (b *Backend) Availability(_ context.Context, d civil.Date) (schedule.DayView, error) {
	if err := b.enter("availability"); err != nil {
		return schedule.DayView{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var view schedule.DayView
	var spans []models.Interval
	fullDay := false
	for _, blk := range b.Blocks {
		if blk.Date != d {
			continue
		}
		view.Blocks = append(view.Blocks, blk)
		if blk.FullDay {
			fullDay = true
		} else if blk.IsPartial() {
			spans = append(spans, *blk.Span)
		}
	}
	for _, ap := range b.Appointments {
		if ap.Date == d && schedule.IsActive(ap) {
			spans = append(spans, ap.Span())
		}
	}
	if fullDay {
		return view, nil
	}

	hours := schedule.DefaultBusinessHours()
	for _, s := range hours.Starts() {
		slot := hours.SlotOf(s)
		free := true
		for _, sp := range spans {
			if slot.Overlaps(sp) {
				free = false
				break
			}
		}
		if free {
			view.Free = append(view.Free, s)
		}
	}
	return view, nil
}

func (b *Backend) CreateBlock(_ context.Context, in schedule.NewBlock) (*models.Block, error) {
	if err := b.enter("create_block"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	blk := models.Block{ID: b.nextID, Date: in.Date, FullDay: in.FullDay, Span: in.Span, Reason: in.Reason}
	b.Blocks = append(b.Blocks, blk)
	return &blk, nil
}

func (b *Backend) ListBlocks(_ context.Context, r models.DateRange) ([]models.Block, error) {
	if err := b.enter("list_blocks"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Block
	for _, blk := range b.Blocks {
		if r.Contains(blk.Date) {
			out = append(out, blk)
		}
	}
	return out, nil
}

func (b *Backend) BlocksOn(_ context.Context, d civil.Date) ([]models.Block, error) {
	if err := b.enter("blocks_on"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Block
	for _, blk := range b.Blocks {
		if blk.Date == d {
			out = append(out, blk)
		}
	}
	return out, nil
}

func (b *Backend) DeleteBlock(_ context.Context, id uint) error {
	if err := b.enter("delete_block"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.Blocks[:0]
	for _, blk := range b.Blocks {
		if blk.ID != id {
			kept = append(kept, blk)
		}
	}
	b.Blocks = kept
	return nil
}

func (b *Backend) UnreadNotifications(_ context.Context) ([]models.Notification, error) {
	if err := b.enter("unread_notifications"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Notification
	for _, n := range b.Notifications {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (b *Backend) MarkNotificationsRead(_ context.Context) error {
	if err := b.enter("mark_notifications_read"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Notifications {
		b.Notifications[i].Read = true
	}
	return nil
}

func (b *Backend) Services(_ context.Context) ([]models.Service, error) {
	if err := b.enter("services"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Service(nil), b.Catalogue...), nil
}
