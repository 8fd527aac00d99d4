package workflow

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
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
)

var (
	loc   = time.FixedZone("ART", -3*60*60)
	jun8  = civil.Date{Year: 2025, Month: time.June, Day: 8}
	jun9  = civil.Date{Year: 2025, Month: time.June, Day: 9}
	jun10 = civil.Date{Year: 2025, Month: time.June, Day: 10}
	jun11 = civil.Date{Year: 2025, Month: time.June, Day: 11}
	actor = agenda.Actor{UserID: 1, Username: "juan"}
)

func deps(be *fake.Backend) agenda.Deps {
	return agenda.Deps{
		Backend:    be,
		Agenda:     cache.NewAgenda(cache.NewMemoryStore(), be, time.Minute, nil, nil),
		Clock:      timezone.Fixed{At: models.MustTime("12:00").On(jun9, loc)},
		Hours:      schedule.DefaultBusinessHours(),
		MinAdvance: 30 * time.Minute,
	}
}

func newBooking(be *fake.Backend) *Booking {
	d := deps(be)
	return NewBooking(BookingDeps{
		Availability: agenda.NewGetAvailability(d),
		Create:       agenda.NewCreateAppointment(d),
		Services:     agenda.NewListServices(d, nil),
		Clock:        d.Clock,
	}, actor)
}

func newBlocking(be *fake.Backend) *Blocking {
	d := deps(be)
	return NewBlocking(BlockingDeps{
		Load:   agenda.NewLoadBlockingContext(d),
		Create: agenda.NewCreateBlock(d),
		Delete: agenda.NewDeleteBlock(d),
		Clock:  d.Clock,
	}, actor)
}

func appt(id uint, d civil.Date, from, to string) models.Appointment {
	return models.Appointment{
		ID:        id,
		Date:      d,
		StartTime: models.MustTime(from),
		EndTime:   models.MustTime(to),
		Client:    models.Client{Name: "Ana"},
		Status:    string(schedule.StatusConfirmed),
	}
}

var contact = Contact{Name: "Luis", LastName: "Paz", Phone: "1144445555", ServiceID: 1}

// toContact drives a booking up to the contact step for jun10 at 15:00.
func toContact(t *testing.T, wf *Booking) {
	t.Helper()
	ctx := context.Background()
	if err := wf.SelectDate(ctx, jun10); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	if err := wf.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := wf.SelectTime(models.MustTime("15:00")); err != nil {
		t.Fatalf("SelectTime: %v", err)
	}
	if err := wf.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := wf.SetContact(contact); err != nil {
		t.Fatalf("SetContact: %v", err)
	}
}

func TestBookingHappyPath(t *testing.T) {
	be := fake.New()
	be.Catalogue = []models.Service{{ID: 1, Name: "Corte", DurationMin: 30}}
	wf := newBooking(be)
	toContact(t, wf)

	ui := dialog.NewRecorder(true)
	created, affected, err := wf.Submit(context.Background(), ui)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if created == nil || created.StartTime != models.MustTime("15:00") {
		t.Fatalf("created = %+v", created)
	}
	if affected != models.SingleDay(jun10) {
		t.Fatalf("affected = %v", affected)
	}

	v := wf.View()
	if v.State != BookingCompleted || v.Date != nil || v.Contact != (Contact{}) {
		t.Fatalf("view = %+v", v)
	}
	if err := wf.SelectDate(context.Background(), jun11); !errors.Is(err, ErrClosed) {
		t.Fatalf("completed booking should be closed, got %v", err)
	}
	if n := ui.Notices(); len(n) != 1 || n[0].Level != dialog.LevelSuccess {
		t.Fatalf("notices = %v", n)
	}
}

func TestBookingSelectDate(t *testing.T) {
	be := fake.New()
	be.AddBlock(models.Block{ID: 3, Date: jun11, FullDay: true})
	wf := newBooking(be)
	ctx := context.Background()

	tests := []struct {
		name string
		date civil.Date
		code string
	}{
		{"yesterday", jun8, string(schedule.ReasonPastDate)},
		{"fully blocked", jun11, string(schedule.ReasonDateFullyBlocked)},
		{"free day", jun10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wf.SelectDate(ctx, tt.date)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("SelectDate: %v", err)
				}
				return
			}
			if !httperr.IsBusiness(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBookingStepGates(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30"))
	wf := newBooking(be)
	ctx := context.Background()

	if err := wf.Next(); !httperr.IsBusiness(err, "date_required") {
		t.Fatalf("Next without date: %v", err)
	}
	if err := wf.SelectDate(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	if err := wf.SelectTime(models.MustTime("15:00")); !httperr.IsBusiness(err, "invalid_transition") {
		t.Fatalf("time before Next: %v", err)
	}
	if err := wf.Next(); err != nil {
		t.Fatal(err)
	}
	if err := wf.Next(); !httperr.IsBusiness(err, "time_required") {
		t.Fatalf("Next without time: %v", err)
	}
	for _, taken := range []string{"10:00", "22:00", "09:15"} {
		if err := wf.SelectTime(models.MustTime(taken)); !httperr.IsBusiness(err, "slot_unavailable") {
			t.Fatalf("SelectTime(%s) = %v", taken, err)
		}
	}
	if err := wf.SelectTime(models.MustTime("10:30")); err != nil {
		t.Fatal(err)
	}
	if err := wf.Back(); err != nil || wf.View().State != BookingSelectingDate {
		t.Fatalf("Back: %v, state %s", err, wf.View().State)
	}
}

func TestBookingSubmitConflictReturnsToTime(t *testing.T) {
	be := fake.New()
	wf := newBooking(be)
	toContact(t, wf)

	// someone else took 15:00 after the form loaded the day
	be.AddAppointment(appt(9, jun10, "15:00", "15:30"))

	ui := dialog.NewRecorder(true)
	_, _, err := wf.Submit(context.Background(), ui)
	if !httperr.IsBusiness(err, string(schedule.ReasonOverlapsAppointment)) {
		t.Fatalf("err = %v", err)
	}
	if be.CallCount("create_appointment") != 0 {
		t.Fatal("conflict must not reach the backend")
	}

	v := wf.View()
	if v.State != BookingSelectingTime || v.Time != nil {
		t.Fatalf("view = %+v", v)
	}
	if v.Error == nil || v.Error.Kind != httperr.KindConflict {
		t.Fatalf("error = %+v", v.Error)
	}
	if v.Day.IsBookable(models.MustTime("15:00")) {
		t.Fatal("reloaded day should no longer offer 15:00")
	}
}

func TestBookingNetworkFailureKeepsForm(t *testing.T) {
	be := fake.New()
	wf := newBooking(be)
	toContact(t, wf)
	ctx := context.Background()

	be.SetFail("create_appointment", httperr.ErrNetwork(errors.New("dial tcp: refused")))
	ui := dialog.NewRecorder(true)
	if _, _, err := wf.Submit(ctx, ui); !httperr.Is(err, httperr.KindNetwork) {
		t.Fatalf("err = %v", err)
	}

	v := wf.View()
	if v.State != BookingFailed || v.Contact != contact || v.Time == nil {
		t.Fatalf("view = %+v", v)
	}

	be.SetFail("create_appointment", nil)
	if _, _, err := wf.Submit(ctx, ui); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if wf.View().State != BookingCompleted {
		t.Fatalf("state = %s", wf.View().State)
	}
}

func TestBookingBackFromFailed(t *testing.T) {
	be := fake.New()
	wf := newBooking(be)
	toContact(t, wf)

	be.SetFail("create_appointment", httperr.ErrServer(503, ""))
	wf.Submit(context.Background(), dialog.NewRecorder(true))

	if err := wf.Back(); err != nil {
		t.Fatal(err)
	}
	if s := wf.View().State; s != BookingEnteringContact {
		t.Fatalf("state = %s", s)
	}
}

func TestBookingDropsStaleDate(t *testing.T) {
	be := fake.New()
	wf := newBooking(be)
	ctx := context.Background()

	fired := false
	be.Hook = func(op string) {
		if op == "list_appointments" && !fired {
			fired = true
			if err := wf.SelectDate(ctx, jun11); err != nil {
				t.Errorf("inner SelectDate: %v", err)
			}
		}
	}

	if err := wf.SelectDate(ctx, jun10); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v", err)
	}
	if v := wf.View(); v.Date == nil || *v.Date != jun11 {
		t.Fatalf("date = %v", v.Date)
	}
}

func TestBookingCloseIgnoresInFlight(t *testing.T) {
	be := fake.New()
	wf := newBooking(be)
	be.Hook = func(op string) {
		if op == "list_appointments" {
			wf.Close()
		}
	}

	if err := wf.SelectDate(context.Background(), jun10); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
	if wf.View().Day != nil {
		t.Fatal("closed form should not keep late results")
	}
}

func TestBookingCalendar(t *testing.T) {
	wf := newBooking(fake.New())
	grid := wf.Calendar(2025, time.June)
	if len(grid) != 6 || len(grid[0]) != 7 {
		t.Fatalf("grid %dx%d", len(grid), len(grid[0]))
	}
	// June 1st 2025 is a Sunday
	if first := grid[0][0]; first.Date != (civil.Date{Year: 2025, Month: time.June, Day: 1}) || first.Selectable {
		t.Fatalf("first cell = %+v", first)
	}
}

func TestBlockingOpensOnToday(t *testing.T) {
	wf := newBlocking(fake.New())

	v := wf.View()
	if v.Draft.Date != jun9 || v.Draft.FullDay || v.FullDayAllowed {
		t.Fatalf("view = %+v", v)
	}
	if *v.Draft.Span != defaultDraftSpan {
		t.Fatalf("span = %v", v.Draft.Span)
	}
	if err := wf.SetFullDay(true); !httperr.IsBusiness(err, "full_day_today") {
		t.Fatalf("err = %v", err)
	}

	// the morning is already over at noon
	_, _, err := wf.Submit(context.Background(), dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, string(schedule.ReasonPastDate)) {
		t.Fatalf("err = %v", err)
	}
	if s := wf.View().State; s != BlockingEditing {
		t.Fatalf("state = %s", s)
	}
}

func TestBlockingTodayForcesPartial(t *testing.T) {
	wf := newBlocking(fake.New())
	ctx := context.Background()

	if err := wf.SetDate(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	if err := wf.SetFullDay(true); err != nil {
		t.Fatal(err)
	}
	if err := wf.SetDate(ctx, jun9); err != nil {
		t.Fatal(err)
	}
	if v := wf.View(); v.Draft.FullDay || v.Draft.Span == nil {
		t.Fatalf("draft = %+v", v.Draft)
	}
}

func TestBlockingUpdateIsAllOrNothing(t *testing.T) {
	wf := newBlocking(fake.New())
	ctx := context.Background()

	reason := "Trámite"
	if err := wf.Update(ctx, DraftPatch{Date: &jun10, Reason: &reason}); err != nil {
		t.Fatal(err)
	}
	before := wf.View().Draft

	full, other := true, "Feriado"
	tests := []struct {
		name  string
		patch DraftPatch
		code  string
	}{
		{"full day moved to today", DraftPatch{Date: &jun9, FullDay: &full, Reason: &other}, "full_day_today"},
		{"range on a full day", DraftPatch{FullDay: &full, Span: &models.Interval{Start: models.MustTime("10:00"), End: models.MustTime("11:00")}}, "range_on_full_day"},
		{"past date", DraftPatch{Date: &jun8, Reason: &other}, string(schedule.ReasonPastDate)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := wf.Update(ctx, tt.patch); !httperr.IsBusiness(err, tt.code) {
				t.Fatalf("err = %v", err)
			}
			after := wf.View().Draft
			if after.Date != before.Date || after.FullDay != before.FullDay || after.Reason != before.Reason {
				t.Fatalf("rejected patch changed the draft: %+v", after)
			}
		})
	}

	if err := wf.Update(ctx, DraftPatch{FullDay: &full}); err != nil {
		t.Fatal(err)
	}
	if v := wf.View(); !v.Draft.FullDay || v.Draft.Span != nil || v.Draft.Date != jun10 {
		t.Fatalf("draft = %+v", v.Draft)
	}
}

func TestBlockingPendingAppointments(t *testing.T) {
	be := fake.New()
	be.AddAppointment(appt(1, jun10, "10:00", "10:30"))
	wf := newBlocking(be)
	ctx := context.Background()

	if err := wf.SetDate(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	if v := wf.View(); len(v.Pending) != 1 {
		t.Fatalf("pending = %v", v.Pending)
	}

	_, _, err := wf.Submit(ctx, dialog.NewRecorder(true))
	if !httperr.IsBusiness(err, string(schedule.ReasonOverlapsAppointment)) {
		t.Fatalf("err = %v", err)
	}
	if be.CallCount("create_block") != 0 {
		t.Fatal("block must not be sent")
	}
	if s := wf.View().State; s != BlockingEditing {
		t.Fatalf("state = %s", s)
	}

	if err := wf.SetRange(models.Interval{Start: models.MustTime("14:00"), End: models.MustTime("16:00")}); err != nil {
		t.Fatal(err)
	}
	if v := wf.View(); len(v.Pending) != 0 {
		t.Fatalf("afternoon pending = %v", v.Pending)
	}
	if _, _, err := wf.Submit(ctx, dialog.NewRecorder(true)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestBlockingFailureThenEdit(t *testing.T) {
	be := fake.New()
	wf := newBlocking(be)
	ctx := context.Background()

	if err := wf.SetDate(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	be.SetFail("create_block", httperr.ErrNetwork(errors.New("timeout")))

	ui := dialog.NewRecorder(true)
	if _, _, err := wf.Submit(ctx, ui); !httperr.Is(err, httperr.KindNetwork) {
		t.Fatalf("err = %v", err)
	}
	v := wf.View()
	if v.State != BlockingFailed || v.Error == nil || v.Draft.Date != jun10 {
		t.Fatalf("view = %+v", v)
	}

	if err := wf.SetReason("Trámite"); err != nil {
		t.Fatal(err)
	}
	if s := wf.View().State; s != BlockingEditing {
		t.Fatalf("state after edit = %s", s)
	}

	be.SetFail("create_block", nil)
	created, affected, err := wf.Submit(ctx, ui)
	if err != nil || created == nil || affected != models.SingleDay(jun10) {
		t.Fatalf("created=%+v affected=%v err=%v", created, affected, err)
	}
	if s := wf.View().State; s != BlockingCompleted {
		t.Fatalf("state = %s", s)
	}
}

func TestBlockingUnblockIsIdempotent(t *testing.T) {
	be := fake.New()
	be.AddBlock(models.Block{ID: 7, Date: jun10, FullDay: true})
	wf := newBlocking(be)
	ctx := context.Background()
	ui := dialog.NewRecorder(true)

	if err := wf.SetDate(ctx, jun10); err != nil {
		t.Fatal(err)
	}
	if n := len(wf.View().Blocks); n != 1 {
		t.Fatalf("blocks = %d", n)
	}

	for i := 0; i < 2; i++ {
		affected, err := wf.Unblock(ctx, 7, ui)
		if err != nil {
			t.Fatalf("Unblock #%d: %v", i+1, err)
		}
		if affected != models.SingleDay(jun10) {
			t.Fatalf("affected = %v", affected)
		}
	}
	if n := len(wf.View().Blocks); n != 0 {
		t.Fatalf("blocks after unblock = %d", n)
	}
}

func TestRegistry(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry[*Booking](10 * time.Minute)
	reg.now = func() time.Time { return now }

	a := newBooking(fake.New())
	id := reg.Put("session-a", a)

	if _, err := reg.Get("session-b", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other session: %v", err)
	}
	if got, err := reg.Get("session-a", id); err != nil || got != a {
		t.Fatalf("Get = %v, %v", got, err)
	}

	reg.RemoveOwner("session-a")
	if reg.Len() != 0 {
		t.Fatal("RemoveOwner should drop the session's workflows")
	}
	if err := a.Next(); !errors.Is(err, ErrClosed) {
		t.Fatalf("removed workflow should be closed, got %v", err)
	}

	b := newBooking(fake.New())
	id = reg.Put("session-a", b)
	now = now.Add(11 * time.Minute)
	if _, err := reg.Get("session-a", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired: %v", err)
	}
}
