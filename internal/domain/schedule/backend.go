package schedule

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// NewAppointment is what the booking form sends to the backend.
type NewAppointment struct {
	Name      string
	LastName  string
	Phone     string
	ServiceID uint
	Date      civil.Date
	Time      models.TimeOfDay
}

// NewBlock is a block proposal; ID is assigned by the backend.
type NewBlock struct {
	Date    civil.Date
	FullDay bool
	Span    *models.Interval
	Reason  string
}

// DayView is the backend's own view of a date's availability.
type DayView struct {
	Free   []models.TimeOfDay
	Blocks []models.Block
}

// Offers reports whether the backend still lists t as a free start.
func (v DayView) Offers(t models.TimeOfDay) bool {
	for _, f := range v.Free {
		if f == t {
			return true
		}
	}
	return false
}

// Backend is everything the dashboard needs from the scheduling API. The
// bearer token travels in ctx.
type Backend interface {
	// -------- Auth --------
	Login(ctx context.Context, username, password string) (token string, user models.User, err error)

	// -------- Appointments --------
	ListAppointments(ctx context.Context, r models.DateRange) ([]models.Appointment, error)
	AppointmentsOn(ctx context.Context, d civil.Date) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, in NewAppointment) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, id uint) error
	RestoreAppointment(ctx context.Context, id uint) error
	CompleteAppointment(ctx context.Context, id uint) error
	StartAppointment(ctx context.Context, id uint) error
	Stats(ctx context.Context, r models.DateRange) (models.Stats, error)

	// -------- Availability --------
	Availability(ctx context.Context, d civil.Date) (DayView, error)

	// -------- Blocks --------
	CreateBlock(ctx context.Context, in NewBlock) (*models.Block, error)
	ListBlocks(ctx context.Context, r models.DateRange) ([]models.Block, error)
	BlocksOn(ctx context.Context, d civil.Date) ([]models.Block, error)
	DeleteBlock(ctx context.Context, id uint) error

	// -------- Notifications --------
	UnreadNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context) error

	// -------- Catalogue --------
	Services(ctx context.Context) ([]models.Service, error)
}
