// internal/domain/door/service.go
package door

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"golang.org/x/crypto/blake2b"
)

// Relay opens the door for a while
type Relay interface {
	Pulse(ctx context.Context, d time.Duration) error
}

// CustomerLookup resolves a card code to a customer profile
type CustomerLookup interface {
	Lookup(ctx context.Context, apiKey, code string) customer.Profile
}

// Service opens the door and keeps the entrance/exit log
type Service struct {
	relay     Relay
	repo      Repository
	customers CustomerLookup
	logger    *logrus.Logger
}

// NewService creates a new door service. repo may be nil when no database is configured.
func NewService(relay Relay, repo Repository, customers CustomerLookup, logger *logrus.Logger) *Service {
	return &Service{
		relay:     relay,
		repo:      repo,
		customers: customers,
		logger:    logger,
	}
}

// Open pulses the relay for pulse and then logs the passage. Logging is
// best-effort and never changes the returned status.
func (s *Service) Open(ctx context.Context, apiKey, code string, pulse time.Duration) Status {
	log := s.logger.WithField("fingerprint", Fingerprint(code)[:12])

	status := StatusOpened
	if err := s.relay.Pulse(ctx, pulse); err != nil {
		log.WithError(err).Error("❌ Failed to pulse door relay")
		status = StatusFailed
	}

	if _, err := s.Record(ctx, apiKey, code); err != nil {
		log.WithError(err).Warn("Failed to log door event")
	}

	return status
}

// Record appends a door event for code, alternating entrance and exit per card
func (s *Service) Record(ctx context.Context, apiKey, code string) (*Event, error) {
	if s.repo == nil {
		return nil, nil
	}

	fingerprint := Fingerprint(code)
	event := &Event{
		Fingerprint: fingerprint,
		Direction:   DirectionEntrance,
	}

	if s.customers != nil {
		profile := s.customers.Lookup(ctx, apiKey, code)
		if profile.Exist {
			event.CustomerID = profile.ID
			event.CustomerName = profile.FullName
		}
	}

	last, err := s.repo.Last(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if last != nil {
		event.Direction = last.Direction.Next()
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": event.CustomerID,
		"direction":   event.Direction,
	}).Info("🚪 Door event recorded")

	return event, nil
}

// Fingerprint returns the blake2b-256 hex digest of a normalized card code
func Fingerprint(code string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(strings.TrimSpace(code))))
	return hex.EncodeToString(sum[:])
}
