package cache

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// Source is the part of the backend the agenda cache reads through to.
type Source interface {
	ListAppointments(ctx context.Context, r models.DateRange) ([]models.Appointment, error)
	ListBlocks(ctx context.Context, r models.DateRange) ([]models.Block, error)
}

const keyPrefix = "agenda:"

func appointmentsKey(d civil.Date) string { return keyPrefix + "appointments:" + d.String() }
func blocksKey(d civil.Date) string       { return keyPrefix + "blocks:" + d.String() }

// Agenda caches appointments and blocks per date. A range read that misses on
// any date fetches the whole range and stores every date, empty ones too.
// Mutations report the range they touched; callers pass it to Invalidate.
type Agenda struct {
	store   Store
	source  Source
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewAgenda(store Store, source Source, ttl time.Duration, log *zap.Logger, m *metrics.Collector) *Agenda {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agenda{store: store, source: source, ttl: ttl, log: log.Named("cache"), metrics: m}
}

func (a *Agenda) Appointments(ctx context.Context, r models.DateRange) ([]models.Appointment, error) {
	if hit, ok := readRange[models.Appointment](ctx, a, r, appointmentsKey); ok {
		return hit, nil
	}

	list, err := a.source.ListAppointments(ctx, r)
	if err != nil {
		return nil, err
	}
	a.PutAppointments(ctx, r, list)
	return list, nil
}

func (a *Agenda) Blocks(ctx context.Context, r models.DateRange) ([]models.Block, error) {
	if hit, ok := readRange[models.Block](ctx, a, r, blocksKey); ok {
		return hit, nil
	}

	list, err := a.source.ListBlocks(ctx, r)
	if err != nil {
		return nil, err
	}
	a.PutBlocks(ctx, r, list)
	return list, nil
}

// Day loads everything on d that a conflict check needs.
func (a *Agenda) Day(ctx context.Context, d civil.Date) (schedule.Agenda, error) {
	r := models.SingleDay(d)

	aps, err := a.Appointments(ctx, r)
	if err != nil {
		return schedule.Agenda{}, err
	}
	blocks, err := a.Blocks(ctx, r)
	if err != nil {
		return schedule.Agenda{}, err
	}
	return schedule.Agenda{Appointments: aps, Blocks: blocks}, nil
}

// Fresh drops d from the cache and reads it again from the backend.
func (a *Agenda) Fresh(ctx context.Context, d civil.Date) (schedule.Agenda, error) {
	a.Invalidate(ctx, models.SingleDay(d))
	return a.Day(ctx, d)
}

// PutAppointments writes a freshly fetched range through to the cache.
func (a *Agenda) PutAppointments(ctx context.Context, r models.DateRange, list []models.Appointment) {
	byDate := map[civil.Date][]models.Appointment{}
	for _, ap := range list {
		byDate[ap.Date] = append(byDate[ap.Date], ap)
	}
	for _, d := range r.Dates() {
		a.put(ctx, appointmentsKey(d), nonNil(byDate[d]))
	}
}

func (a *Agenda) PutBlocks(ctx context.Context, r models.DateRange, list []models.Block) {
	byDate := map[civil.Date][]models.Block{}
	for _, b := range list {
		byDate[b.Date] = append(byDate[b.Date], b)
	}
	for _, d := range r.Dates() {
		a.put(ctx, blocksKey(d), nonNil(byDate[d]))
	}
}

func (a *Agenda) Invalidate(ctx context.Context, r models.DateRange) {
	dates := r.Dates()
	keys := make([]string, 0, 2*len(dates))
	for _, d := range dates {
		keys = append(keys, appointmentsKey(d), blocksKey(d))
	}
	if err := a.store.Del(ctx, keys...); err != nil {
		a.log.Warn("cache invalidate failed", zap.String("range", r.String()), zap.Error(err))
	}
}

func (a *Agenda) put(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := a.store.Set(ctx, key, b, a.ttl); err != nil {
		a.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// readRange returns the cached union for r, or false when any date misses.
// Store errors count as misses.
func readRange[T any](ctx context.Context, a *Agenda, r models.DateRange, key func(civil.Date) string) ([]T, bool) {
	out := []T{}
	for _, d := range r.Dates() {
		raw, ok, err := a.store.Get(ctx, key(d))
		if err != nil {
			a.log.Warn("cache read failed", zap.String("key", key(d)), zap.Error(err))
		}
		if err != nil || !ok {
			a.metrics.CacheLookup(false)
			return nil, false
		}

		var day []T
		if err := json.Unmarshal(raw, &day); err != nil {
			a.metrics.CacheLookup(false)
			return nil, false
		}
		out = append(out, day...)
	}
	a.metrics.CacheLookup(true)
	return out, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
