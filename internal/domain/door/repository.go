// internal/domain/door/repository.go
package door

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists door events
type Repository interface {
	Last(ctx context.Context, fingerprint string) (*Event, error)
	Create(ctx context.Context, event *Event) error
}

// GormRepository stores door events in postgres
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new door event repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Last returns the most recent event for fingerprint, or nil if there is none
func (r *GormRepository) Last(ctx context.Context, fingerprint string) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		Order("created_at DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last door event: %w", err)
	}
	return &event, nil
}

// Create inserts event
func (r *GormRepository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create door event: %w", err)
	}
	return nil
}
