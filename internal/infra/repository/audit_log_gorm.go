package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-dashboard/internal/audit"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// AuditLogFilter narrows an audit listing; zero fields are ignored.
type AuditLogFilter struct {
	Action   string
	Entity   string
	Username string
	From     *time.Time
	To       *time.Time // exclusive

	Limit  int
	Offset int
}

type AuditLogGormRepository struct {
	db *gorm.DB
}

var _ audit.Sink = (*AuditLogGormRepository)(nil)

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

// --------------------------------------------------
// Write
// --------------------------------------------------

// Write stores one entry; it makes the repository an audit sink.
func (r *AuditLogGormRepository) Write(ctx context.Context, entry models.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// --------------------------------------------------
// Read
// --------------------------------------------------

// List returns one page, newest first, and the total for the filter.
func (r *AuditLogGormRepository) List(ctx context.Context, f AuditLogFilter) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
