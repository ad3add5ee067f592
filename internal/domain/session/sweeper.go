// internal/domain/session/sweeper.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
)

// Checkout runs the order pipeline
type Checkout interface {
	Run(ctx context.Context, req order.Request) (*order.Result, error)
}

// SweeperConfig controls how often and after how long sessions are reclaimed
type SweeperConfig struct {
	Interval    time.Duration
	IdleTimeout time.Duration
	Shop        order.Shop
}

// Sweeper checks out and removes sessions that have been idle too long
type Sweeper struct {
	registry *Registry
	checkout Checkout
	config   SweeperConfig
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a new sweeper
func NewSweeper(registry *Registry, checkout Checkout, cfg SweeperConfig, logger *logrus.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		registry: registry,
		checkout: checkout,
		config:   cfg,
		logger:   logger,
		metrics:  m,
		inflight: make(map[string]struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		s.logger.WithFields(logrus.Fields{
			"interval":     s.config.Interval.String(),
			"idle_timeout": s.config.IdleTimeout.String(),
		}).Info("🧹 Session sweeper started")

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the ticker and waits for running reclaims to finish
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.wg.Wait()
	s.logger.Info("Session sweeper stopped")
}

// Sweep starts a reclaim for every idle session not already being reclaimed
func (s *Sweeper) Sweep(ctx context.Context) {
	for _, id := range s.registry.Idle(s.config.IdleTimeout) {
		if !s.claim(id) {
			continue
		}
		s.wg.Add(1)
		go s.reclaim(context.WithoutCancel(ctx), id)
	}
}

func (s *Sweeper) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Sweeper) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Sweeper) reclaim(ctx context.Context, id string) {
	defer s.wg.Done()
	defer s.release(id)

	sess, ok := s.registry.Get(id)
	if !ok {
		return
	}

	sess.Lock()
	if sess.removed || !s.registry.IsIdle(sess, s.config.IdleTimeout) {
		sess.Unlock()
		return
	}
	items, profile := s.registry.Snapshot(sess)
	s.registry.Destroy(sess)
	sess.Unlock()

	s.metrics.Reclaimed.Inc()
	log := s.logger.WithField("session_id", id)

	result, err := s.checkout.Run(ctx, order.Request{
		Shop:      s.config.Shop,
		SessionID: id,
		Trigger:   order.TriggerSweep,
		Cart:      items,
		Customer:  profile,
	})
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		log.Debug("Idle session without items removed")
	case err != nil:
		log.WithError(err).Error("❌ Auto-checkout of idle session failed")
	default:
		log.WithFields(logrus.Fields{
			"order_number": result.OrderNumber,
			"total":        result.Total.StringFixed(2),
		}).Info("Idle session checked out")
	}
}
