package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

type poller struct {
	agg      *Aggregator
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Manager owns one poller per session.
type Manager struct {
	backend  schedule.Backend
	agenda   *cache.Agenda
	clock    timezone.Clock
	interval time.Duration
	log      *zap.Logger
	metrics  *metrics.Collector

	// Expired is called with the session id when a poller hits an auth error.
	Expired func(sessionID string)

	mu      sync.Mutex
	pollers map[string]*poller
}

func NewManager(
	be schedule.Backend,
	agenda *cache.Agenda,
	clock timezone.Clock,
	interval time.Duration,
	log *zap.Logger,
	m *metrics.Collector,
) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		backend:  be,
		agenda:   agenda,
		clock:    clock,
		interval: interval,
		log:      log,
		metrics:  m,
		pollers:  map[string]*poller{},
	}
}

// Ensure returns the session's aggregator, starting its poller on first use.
func (m *Manager) Ensure(sessionID, token string) *Aggregator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.pollers[sessionID]; ok {
		if !old.agg.Expired() {
			return old.agg
		}
		// its expire may still be pending; stop runs once either way
		delete(m.pollers, sessionID)
		go m.stop(old)
	}

	ctx, cancel := context.WithCancel(backend.WithToken(context.Background(), token))
	p := &poller{cancel: cancel, done: make(chan struct{})}
	p.agg = NewAggregator(Options{
		Backend: m.backend,
		Agenda:  m.agenda,
		Clock:   m.clock,
		Log:     m.log.With(zap.String("session", sessionID)),
		Metrics: m.metrics,
		OnAuthError: func() {
			go m.expire(sessionID, p)
		},
	})
	m.pollers[sessionID] = p
	m.metrics.Pollers(1)

	go func() {
		defer close(p.done)
		p.agg.Run(ctx, m.interval)
	}()

	return p.agg
}

// expire retires p after an auth error and reports the session, whether or
// not Ensure already replaced p.
func (m *Manager) expire(sessionID string, p *poller) {
	m.mu.Lock()
	if m.pollers[sessionID] == p {
		delete(m.pollers, sessionID)
	}
	m.mu.Unlock()

	m.log.Info("dashboard session expired", zap.String("session", sessionID))
	m.stop(p)
	if m.Expired != nil {
		m.Expired(sessionID)
	}
}

func (m *Manager) stop(p *poller) {
	p.stopOnce.Do(func() {
		p.cancel()
		<-p.done
		m.metrics.Pollers(-1)
	})
}

// Stop ends the session's poller; a stopped session can be started again.
func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	p, ok := m.pollers[sessionID]
	delete(m.pollers, sessionID)
	m.mu.Unlock()

	if ok {
		m.stop(p)
	}
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.pollers))
	for id := range m.pollers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pollers)
}
