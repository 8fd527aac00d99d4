package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/dto"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

// Poll modes, also used as metric labels.
const (
	ModeInitial    = "initial"
	ModeBackground = "background"
	ModeManual     = "manual"
)

// Snapshot is what the dashboard page shows. Data from the last successful
// round survives later failures; Error then carries the soft failure.
type Snapshot struct {
	Date          civil.Date            `json:"date"`
	Appointments  []dto.AgendaRowDTO    `json:"appointments"`
	Notifications []models.Notification `json:"notifications"`
	Stats         models.Stats          `json:"stats"`
	Loading       bool                  `json:"loading"`
	Refreshing    bool                  `json:"refreshing"`
	Error         string                `json:"error,omitempty"`
	UpdatedAt     *time.Time            `json:"updated_at,omitempty"`
}

type Options struct {
	Backend schedule.Backend
	Agenda  *cache.Agenda
	Clock   timezone.Clock
	Log     *zap.Logger
	Metrics *metrics.Collector
	// OnAuthError runs once when the backend rejects the session.
	OnAuthError func()
}

// Aggregator fetches the three dashboard feeds for one session.
type Aggregator struct {
	opts Options

	mu      sync.Mutex
	snap    Snapshot
	loaded  bool
	expired bool
}

func NewAggregator(opts Options) *Aggregator {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Aggregator{opts: opts}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.snap
	s.Appointments = append([]dto.AgendaRowDTO{}, s.Appointments...)
	s.Notifications = append([]models.Notification{}, s.Notifications...)
	return s
}

// Expired reports whether a round hit an auth error.
func (a *Aggregator) Expired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expired
}

type round struct {
	appointments  []models.Appointment
	notifications []models.Notification
	stats         models.Stats
}

// Refresh runs one round. The three feeds are fetched concurrently and the
// snapshot only changes when all of them succeed.
func (a *Aggregator) Refresh(ctx context.Context, mode string) error {
	a.mu.Lock()
	if a.expired {
		a.mu.Unlock()
		return httperr.ErrAuth("")
	}
	if a.loaded {
		a.snap.Refreshing = true
	} else {
		a.snap.Loading = true
	}
	a.mu.Unlock()

	now := a.opts.Clock.Now()
	today := civil.DateOf(now)
	r, err := a.fetch(ctx, today)

	a.mu.Lock()
	a.snap.Loading = false
	a.snap.Refreshing = false

	if err != nil {
		a.snap.Error = httperr.MessageOf(err)
		expired := httperr.Is(err, httperr.KindAuth) && !a.expired
		if expired {
			a.expired = true
		}
		a.mu.Unlock()

		a.opts.Metrics.Poll(mode, string(httperr.KindOf(err)))
		a.opts.Log.Warn("dashboard refresh failed",
			zap.String("mode", mode),
			zap.Error(err),
		)
		if expired && a.opts.OnAuthError != nil {
			a.opts.OnAuthError()
		}
		return err
	}

	a.snap = Snapshot{
		Date:          today,
		Appointments:  dto.AgendaRows(r.appointments, now),
		Notifications: r.notifications,
		Stats:         r.stats,
		UpdatedAt:     &now,
	}
	a.loaded = true
	a.mu.Unlock()

	a.opts.Metrics.Poll(mode, "ok")
	return nil
}

func (a *Aggregator) fetch(ctx context.Context, today civil.Date) (round, error) {
	var r round
	day := models.SingleDay(today)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := a.opts.Backend.AppointmentsOn(gctx, today)
		if err != nil {
			return err
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime < list[j].StartTime })
		if a.opts.Agenda != nil {
			a.opts.Agenda.PutAppointments(gctx, day, list)
		}
		r.appointments = list
		return nil
	})

	g.Go(func() error {
		list, err := a.opts.Backend.UnreadNotifications(gctx)
		if err != nil {
			return err
		}
		r.notifications = list
		return nil
	})

	g.Go(func() error {
		st, err := a.opts.Backend.Stats(gctx, day)
		if err != nil {
			return err
		}
		r.stats = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return round{}, err
	}
	if r.notifications == nil {
		r.notifications = []models.Notification{}
	}
	return r, nil
}

// MarkAllRead clears the unread list on the backend and locally.
func (a *Aggregator) MarkAllRead(ctx context.Context) error {
	if err := a.opts.Backend.MarkNotificationsRead(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.snap.Notifications = []models.Notification{}
	a.mu.Unlock()
	return nil
}

// Run polls every interval until ctx ends or the session expires.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) {
	if err := a.Refresh(ctx, ModeInitial); httperr.Is(err, httperr.KindAuth) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Refresh(ctx, ModeBackground); httperr.Is(err, httperr.KindAuth) {
				return
			}
		}
	}
}
