package audit

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// Sink persists one audit entry. The Postgres sink lives in
// infra/repository.
type Sink interface {
	Write(ctx context.Context, entry models.AuditLog) error
}

func newEntry(userID *uint, username, action, entity string, entityID *uint, metadata any) models.AuditLog {
	var metaJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}

	return models.AuditLog{
		UserID:   userID,
		Username: username,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: metaJSON,
	}
}

// -------- Log only --------

// LogSink records entries in the application log when no database is set up.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("audit")}
}

func (s *LogSink) Write(_ context.Context, e models.AuditLog) error {
	fields := []zap.Field{
		zap.String("action", e.Action),
		zap.String("entity", e.Entity),
		zap.String("username", e.Username),
	}
	if e.EntityID != nil {
		fields = append(fields, zap.Uint("entity_id", *e.EntityID))
	}
	if e.Metadata != "" {
		fields = append(fields, zap.String("metadata", e.Metadata))
	}
	s.log.Info("audit", fields...)
	return nil
}
