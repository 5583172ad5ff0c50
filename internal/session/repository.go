// File: internal/session/repository.go
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"vitrine_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines the interface for session persistence operations.
type Repository interface {
	Create(ctx context.Context, record *ClientSession) error
	FindByClientID(ctx context.Context, clientID string) (*ClientSession, error)
	Save(ctx context.Context, record *ClientSession) error
	DeleteByClientID(ctx context.Context, clientID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	ListActive(ctx context.Context, now time.Time, page, pageSize int) ([]ClientSession, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM session repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new session record.
func (r *gormRepository) Create(ctx context.Context, record *ClientSession) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return common.ErrConflict.WithDetails("A session record already exists for this client.")
		}
		return err
	}
	return nil
}

// FindByClientID retrieves the session record for a gateway client.
func (r *gormRepository) FindByClientID(ctx context.Context, clientID string) (*ClientSession, error) {
	var record ClientSession
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No session record for this client.")
		}
		return nil, err
	}
	return &record, nil
}

// Save persists changes to an existing session record.
func (r *gormRepository) Save(ctx context.Context, record *ClientSession) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// DeleteByClientID removes the session record for a client. Deleting a record
// that does not exist is not an error, which keeps logout idempotent.
func (r *gormRepository) DeleteByClientID(ctx context.Context, clientID string) error {
	return r.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&ClientSession{}).Error
}

// DeleteExpired removes session records whose expiry is before the cutoff.
func (r *gormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&ClientSession{})
	return result.RowsAffected, result.Error
}

// ListActive returns a page of unexpired, logged-in session rows.
func (r *gormRepository) ListActive(ctx context.Context, now time.Time, page, pageSize int) ([]ClientSession, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	query := r.db.WithContext(ctx).Model(&ClientSession{}).
		Where("expires_at >= ?", now).
		Where("user_json IS NOT NULL").
		Where("token IS NOT NULL")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []ClientSession
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
