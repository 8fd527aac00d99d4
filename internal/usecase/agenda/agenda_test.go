package agenda

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/dialog"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend/fake"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

var (
	loc   = time.FixedZone("ART", -3*60*60)
	jun9  = civil.Date{Year: 2025, Month: time.June, Day: 9}
	jun10 = civil.Date{Year: 2025, Month: time.June, Day: 10}
	actor = Actor{UserID: 1, Username: "juan"}
)

func newDeps(be *fake.Backend, now time.Time) Deps {
	return Deps{
		Backend:    be,
		Agenda:     cache.NewAgenda(cache.NewMemoryStore(), be, time.Minute, nil, nil),
		Clock:      timezone.Fixed{At: now},
		Hours:      schedule.DefaultBusinessHours(),
		MinAdvance: 30 * time.Minute,
	}
}

func appt(id uint, d civil.Date, from, to string, st schedule.Status) models.Appointment {
	return models.Appointment{
		ID:        id,
		Date:      d,
		StartTime: models.MustTime(from),
		EndTime:   models.MustTime(to),
		Client:    models.Client{Name: "Ana", Phone: "1155550000"},
		Status:    string(st),
	}
}

func noon(d civil.Date) time.Time {
	return models.MustTime("12:00").On(d, loc)
}

func TestCancelNeedsConfirmation(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30", schedule.StatusPending))
	d := newDeps(be, noon(jun9))
	ctx := context.Background()
	uc := NewCancelAppointment(d)

	ui := dialog.NewRecorder(false)
	if _, err := uc.Execute(ctx, actor, AppointmentRef{Date: jun10, ID: 1}, ui); !httperr.IsBusiness(err, "confirmation_required") {
		t.Fatalf("err = %v", err)
	}
	if be.CallCount("cancel_appointment") != 0 {
		t.Fatal("declined prompt must not reach the backend")
	}
	if len(ui.Asked()) != 1 {
		t.Fatalf("prompts = %v", ui.Asked())
	}

	ui = dialog.NewRecorder(true)
	affected, err := uc.Execute(ctx, actor, AppointmentRef{Date: jun10, ID: 1}, ui)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if affected != models.SingleDay(jun10) {
		t.Fatalf("affected = %v", affected)
	}
	if n := ui.Notices(); len(n) != 1 || n[0].Level != dialog.LevelSuccess {
		t.Fatalf("notices = %v", n)
	}

	rows, err := NewListAppointmentsByDate(d).Execute(ctx, jun10)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Status != string(schedule.StatusCancelled) || !rows[0].Restorable {
		t.Fatalf("cache was not invalidated: %+v", rows[0])
	}
}

func TestCancelRejectsCompleted(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30", schedule.StatusCompleted))
	uc := NewCancelAppointment(newDeps(be, noon(jun9)))

	_, err := uc.Execute(context.Background(), actor, AppointmentRef{Date: jun10, ID: 1}, dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, "invalid_state") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownAppointment(t *testing.T) {
	uc := NewCompleteAppointment(newDeps(fake.New(), noon(jun9)))
	_, err := uc.Execute(context.Background(), actor, AppointmentRef{Date: jun10, ID: 9}, dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, "appointment_not_found") {
		t.Fatalf("err = %v", err)
	}
}

func TestRestoreChecksTheSlotIsStillFree(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30", schedule.StatusCancelled))
	be.AddAppointment(appt(2, jun10, "10:00", "10:30", schedule.StatusPending))
	uc := NewRestoreAppointment(newDeps(be, noon(jun9)))

	_, err := uc.Execute(context.Background(), actor, AppointmentRef{Date: jun10, ID: 1}, dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, string(schedule.ReasonOverlapsAppointment)) {
		t.Fatalf("err = %v", err)
	}
	if be.CallCount("restore_appointment") != 0 {
		t.Fatal("conflicting restore reached the backend")
	}
}

func TestRestoreThenBookingConflicts(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30", schedule.StatusCancelled))
	d := newDeps(be, noon(jun9))
	ctx := context.Background()

	if _, err := NewRestoreAppointment(d).Execute(ctx, actor, AppointmentRef{Date: jun10, ID: 1}, dialog.NewRecorder(true)); err != nil {
		t.Fatalf("restore: %v", err)
	}

	_, _, err := NewCreateAppointment(d).Execute(ctx, actor, CreateAppointmentInput{
		Date: jun10, Time: models.MustTime("10:00"),
		Name: "Luis", LastName: "Paz", Phone: "1144440000",
		Service: models.Service{ID: 1, DurationMin: 30},
	})
	if !httperr.IsBusiness(err, string(schedule.ReasonOverlapsAppointment)) {
		t.Fatalf("restored appointment should block the slot again, err = %v", err)
	}
}

func TestRestorePastAppointment(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun9, "10:00", "10:30", schedule.StatusCancelled))
	uc := NewRestoreAppointment(newDeps(be, noon(jun9)))

	_, err := uc.Execute(context.Background(), actor, AppointmentRef{Date: jun9, ID: 1}, dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, "appointment_in_past") {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateAppointmentUsesFreshData(t *testing.T) {
	be := fake.New()
	d := newDeps(be, noon(jun9))
	ctx := context.Background()

	// prime the cache with an empty day
	if _, err := d.Agenda.Day(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	be.AddAppointment(appt(5, jun10, "15:00", "15:30", schedule.StatusPending))

	_, _, err := NewCreateAppointment(d).Execute(ctx, actor, CreateAppointmentInput{
		Date: jun10, Time: models.MustTime("15:00"),
		Name: "Luis", LastName: "Paz", Phone: "1144440000",
		Service: models.Service{ID: 1, DurationMin: 30},
	})
	if !httperr.Is(err, httperr.KindConflict) {
		t.Fatalf("stale cache let a double booking through: %v", err)
	}
}

func TestCreateAppointmentValidatesForm(t *testing.T) {
	uc := NewCreateAppointment(newDeps(fake.New(), noon(jun9)))
	_, _, err := uc.Execute(context.Background(), actor, CreateAppointmentInput{
		Date: jun10, Time: models.MustTime("15:00"),
		Name: "Luis", LastName: "Paz", Phone: "11-44",
	})
	if !httperr.IsBusiness(err, "phone_invalid") {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateBlock(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateBlockInput
		seed  []models.Appointment
		code  string
		calls int
	}{
		{
			name: "full day today",
			in:   CreateBlockInput{Date: jun9, FullDay: true},
			code: "full_day_today",
		},
		{
			name: "off grid",
			in:   CreateBlockInput{Date: jun10, Span: &models.Interval{Start: models.MustTime("10:10"), End: models.MustTime("11:00")}},
			code: "invalid_range",
		},
		{
			name: "pending appointment in range",
			in:   CreateBlockInput{Date: jun10, Span: &models.Interval{Start: models.MustTime("09:30"), End: models.MustTime("10:30")}},
			seed: []models.Appointment{appt(1, jun10, "10:00", "10:30", schedule.StatusPending)},
			code: string(schedule.ReasonOverlapsAppointment),
		},
		{
			name:  "free morning",
			in:    CreateBlockInput{Date: jun10, Span: &models.Interval{Start: models.MustTime("09:00"), End: models.MustTime("12:00")}, Reason: "Trámite"},
			calls: 1,
		},
		{
			name:  "full day tomorrow",
			in:    CreateBlockInput{Date: jun10, FullDay: true, Reason: "Feriado"},
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := fake.New()
			for _, ap := range tt.seed {
				be.AddAppointment(ap)
			}
			uc := NewCreateBlock(newDeps(be, noon(jun9)))

			created, affected, err := uc.Execute(context.Background(), actor, tt.in)
			if tt.code != "" {
				if !httperr.IsBusiness(err, tt.code) {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if created == nil || affected != models.SingleDay(tt.in.Date) {
				t.Fatalf("created=%+v affected=%v", created, affected)
			}
			if be.CallCount("create_block") != tt.calls {
				t.Fatalf("create_block calls = %d", be.CallCount("create_block"))
			}
		})
	}
}

func TestDeleteBlockInvalidatesDate(t *testing.T) {
	be := fake.New()
	be.AddBlock(models.Block{ID: 7, Date: jun10, FullDay: true})
	d := newDeps(be, noon(jun9))
	ctx := context.Background()

	av, err := NewGetAvailability(d).Execute(ctx, jun10)
	if err != nil || av.Classification != schedule.ClassFullyBlocked {
		t.Fatalf("before = %+v, %v", av, err)
	}

	if _, err := NewDeleteBlock(d).Execute(ctx, actor, jun10, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDeleteBlock(d).Execute(ctx, actor, jun10, 7); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	av, _ = NewGetAvailability(d).Execute(ctx, jun10)
	if av.Classification != schedule.ClassNoAppointments || len(av.Periods) == 0 {
		t.Fatalf("after = %+v", av)
	}
}

func TestMonthView(t *testing.T) {
	be := fake.New()
	be.AddBlock(models.Block{ID: 1, Date: jun10, FullDay: true})
	be.AddBlock(models.Block{ID: 2, Date: civil.Date{Year: 2025, Month: time.June, Day: 11}, Span: &models.Interval{Start: models.MustTime("09:00"), End: models.MustTime("10:00")}})
	be.AddAppointment(appt(3, civil.Date{Year: 2025, Month: time.June, Day: 12}, "10:00", "10:30", schedule.StatusPending))

	view, err := NewListAppointmentsByMonth(newDeps(be, noon(jun9))).Execute(context.Background(), 2025, time.June)
	if err != nil {
		t.Fatal(err)
	}

	badges := map[civil.Date]schedule.Classification{}
	for _, w := range view.Weeks {
		if len(w) != 7 {
			t.Fatalf("week has %d days", len(w))
		}
		for _, c := range w {
			badges[c.Date] = c.Badge
		}
	}

	want := map[int]schedule.Classification{
		10: schedule.ClassFullyBlocked,
		11: schedule.ClassPartialBlock,
		12: schedule.ClassHasAvailability,
		13: schedule.ClassNoAppointments,
	}
	for day, c := range want {
		if got := badges[civil.Date{Year: 2025, Month: time.June, Day: day}]; got != c {
			t.Errorf("June %d badge = %s, want %s", day, got, c)
		}
	}
	if view.Weeks[0][0].Date.In(time.UTC).Weekday() != time.Monday {
		t.Errorf("weeks must start on Monday")
	}
	if len(view.Appointments) != 1 || len(view.Blocks) != 2 {
		t.Errorf("month lists = %d appointments, %d blocks", len(view.Appointments), len(view.Blocks))
	}
}

func TestListServicesFallback(t *testing.T) {
	be := fake.New()
	be.SetFail("services", httperr.ErrNetwork(errors.New("down")))
	uc := NewListServices(newDeps(be, noon(jun9)), nil)

	list, fallback, err := uc.Execute(context.Background())
	if err != nil || !fallback || len(list) != len(FallbackServices) {
		t.Fatalf("list=%v fallback=%v err=%v", list, fallback, err)
	}

	be.SetFail("services", httperr.ErrAuth(""))
	if _, _, err := uc.Execute(context.Background()); !httperr.Is(err, httperr.KindAuth) {
		t.Fatalf("expired session must surface, got %v", err)
	}
}

func TestCreateAppointmentFollowsBackendSlots(t *testing.T) {
	be := fake.New()
	d := newDeps(be, noon(jun9))

	// another operator books 15:00 between our fresh read and the create
	be.Hook = func(op string) {
		if op == "availability" {
			be.AddAppointment(appt(9, jun10, "15:00", "15:30", schedule.StatusConfirmed))
		}
	}

	_, _, err := NewCreateAppointment(d).Execute(context.Background(), actor, CreateAppointmentInput{
		Date: jun10, Time: models.MustTime("15:00"),
		Name: "Luis", LastName: "Paz", Phone: "1144440000",
		Service: models.Service{ID: 1, DurationMin: 30},
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v", err)
	}
	if be.CallCount("create_appointment") != 0 {
		t.Fatal("create must not run when the backend no longer offers the slot")
	}
}

func TestLoadBlockingContextAsksTheDate(t *testing.T) {
	be := fake.New()
	be.AddBlock(models.Block{ID: 3, Date: jun10, Span: &models.Interval{Start: models.MustTime("18:00"), End: models.MustTime("19:00")}})
	be.AddBlock(models.Block{ID: 4, Date: jun9, FullDay: true})
	be.AddAppointment(appt(1, jun10, "10:00", "10:30", schedule.StatusPending))
	be.AddAppointment(appt(2, jun10, "15:00", "15:30", schedule.StatusCancelled))
	d := newDeps(be, noon(jun9))
	ctx := context.Background()

	morning := &models.Interval{Start: models.MustTime("09:00"), End: models.MustTime("12:00")}
	out, err := NewLoadBlockingContext(d).Execute(ctx, jun10, morning)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Blocks) != 1 || out.Blocks[0].ID != 3 {
		t.Fatalf("blocks = %+v", out.Blocks)
	}
	if len(out.Pending) != 1 || out.Pending[0].ID != 1 {
		t.Fatalf("pending = %+v", out.Pending)
	}
	if be.CallCount("blocks_on") != 1 || be.CallCount("list_blocks") != 0 {
		t.Fatalf("blocks_on=%d list_blocks=%d", be.CallCount("blocks_on"), be.CallCount("list_blocks"))
	}

	// the answer was written through to the cache
	if _, err := d.Agenda.Blocks(ctx, models.SingleDay(jun10)); err != nil {
		t.Fatal(err)
	}
	if n := be.CallCount("list_blocks"); n != 0 {
		t.Fatalf("list_blocks = %d after write-through", n)
	}
}
