package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
)

var (
	ErrNotFound = httperr.ErrValidation("workflow_not_found", "El formulario ya no está disponible.")
	ErrClosed   = httperr.ErrValidation("workflow_closed", "El formulario ya fue cerrado.")
	ErrStale    = httperr.ErrValidation("stale_response", "La fecha cambió mientras se cargaban los datos.")
	ErrBusy     = httperr.ErrValidation("workflow_busy", "Hay un envío en curso.")
)

func errTransition(from, action string) error {
	return httperr.ErrValidation("invalid_transition", "No se puede "+action+" en el paso actual ("+from+").")
}

// Closer is implemented by every workflow kept in a Registry.
type Closer interface {
	Close()
}

type entry[T Closer] struct {
	owner   string
	wf      T
	touched time.Time
}

// Registry keeps open workflows per session. Entries idle for longer than
// ttl are closed and dropped on the next access.
type Registry[T Closer] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
}

func NewRegistry[T Closer](ttl time.Duration) *Registry[T] {
	return &Registry[T]{entries: map[string]*entry[T]{}, ttl: ttl, now: time.Now}
}

func (r *Registry[T]) Put(owner string, wf T) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()

	id := uuid.NewString()
	r.entries[id] = &entry[T]{owner: owner, wf: wf, touched: r.now()}
	return id
}

func (r *Registry[T]) Get(owner, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()

	var zero T
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return zero, ErrNotFound
	}
	e.touched = r.now()
	return e.wf, nil
}

// Remove closes and forgets one workflow.
func (r *Registry[T]) Remove(owner, id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && e.owner == owner {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok && e.owner == owner {
		e.wf.Close()
	}
}

// RemoveOwner closes every workflow of a session, on logout or expiry.
func (r *Registry[T]) RemoveOwner(owner string) {
	r.mu.Lock()
	var closing []T
	for id, e := range r.entries {
		if e.owner == owner {
			closing = append(closing, e.wf)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, wf := range closing {
		wf.Close()
	}
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) sweep() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.entries {
		if e.touched.Before(cutoff) {
			delete(r.entries, id)
			go e.wf.Close()
		}
	}
}
