package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

const keyPrefix = "session:"

// Store keeps operator sessions; each one holds the backend bearer token that
// the browser never sees.
type Store struct {
	kv  cache.Store
	ttl time.Duration
	now func() time.Time
}

func NewStore(kv cache.Store, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl, now: time.Now}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Create(ctx context.Context, backendToken string, user models.User) (*models.Session, error) {
	sess := &models.Session{
		ID:           uuid.NewString(),
		BackendToken: backendToken,
		User:         user,
		CreatedAt:    s.now(),
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, keyPrefix+sess.ID, b, s.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns an auth error when id is unknown or expired.
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, ok, err := s.kv.Get(ctx, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.ErrAuth("")
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, httperr.ErrAuth("")
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.kv.Del(ctx, keyPrefix+id)
}
