// internal/domain/settings/service.go
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("setting not found")

// Source resolves a setting by key. Missing keys return ErrNotFound.
type Source interface {
	Get(ctx context.Context, key string) (string, error)
}

// Chain asks each source in turn and returns the first value found
type Chain struct {
	sources []Source
	logger  *logrus.Logger
}

// NewChain creates a settings chain. Earlier sources take precedence.
func NewChain(logger *logrus.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger}
}

// Get returns the first value any source has for key. Source errors other
// than ErrNotFound are logged and the next source is tried.
func (c *Chain) Get(ctx context.Context, key string) (string, error) {
	for _, source := range c.sources {
		value, err := source.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"key":    key,
				"source": fmt.Sprintf("%T", source),
			}).Warn("Settings source failed")
		}
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotFound)
}

// GetOr returns the value for key or fallback when no source has it
func (c *Chain) GetOr(ctx context.Context, key, fallback string) string {
	value, err := c.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// Duration reads key as a Go duration ("15m") or a number of seconds
func (c *Chain) Duration(ctx context.Context, key string, fallback time.Duration) time.Duration {
	value, err := c.Get(ctx, key)
	if err != nil {
		return fallback
	}
	d, err := ParseDuration(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Invalid duration setting, using default")
		return fallback
	}
	return d
}

// ParseDuration accepts a Go duration string or a plain number of seconds
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("duration must be positive: %q", value)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", value)
	}
	return d, nil
}

// Static serves settings from a fixed map
type Static map[string]string

// Get returns the value for key
func (s Static) Get(_ context.Context, key string) (string, error) {
	value, ok := s[key]
	if !ok || value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Public exposes only display texts from a source. Well-known operational
// keys and anything that looks like a credential are reported as missing.
type Public struct {
	source Source
}

// NewPublic wraps source for clients that may read arbitrary keys
func NewPublic(source Source) *Public {
	return &Public{source: source}
}

var privateKeys = map[string]bool{
	KeyOFNAPIKey:          true,
	KeyDistributorID:      true,
	KeyOrderCycleID:       true,
	KeyPaymentMethodID:    true,
	KeySessionIdleTimeout: true,
	KeyRelayPulse:         true,
}

var privateMarkers = []string{"api_key", "apikey", "password", "secret", "token"}

// IsPrivate reports whether key must never reach a kiosk client
func IsPrivate(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if privateKeys[key] {
		return true
	}
	for _, marker := range privateMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// Get returns the value for key unless the key is private
func (p *Public) Get(ctx context.Context, key string) (string, error) {
	if IsPrivate(key) {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return p.source.Get(ctx, key)
}

// Store reads and writes the settings table
type Store struct {
	db *gorm.DB
}

// NewStore creates a new settings store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the value stored for key
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var setting Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting: %w", err)
	}
	return setting.Value, nil
}

// SetDefault stores value for key unless the key already has a row
func (s *Store) SetDefault(ctx context.Context, key, value string) error {
	setting := Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting: %w", err)
	}
	return nil
}
