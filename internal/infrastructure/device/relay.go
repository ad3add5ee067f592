// internal/infrastructure/device/relay.go
package device

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// runner executes an external command
type runner func(ctx context.Context, argv []string) error

func execRunner(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty relay command")
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, out)
	}
	return nil
}

// Relay switches the door relay with an external USB relay tool
type Relay struct {
	on     []string
	off    []string
	run    runner
	logger *logrus.Logger
}

// NewRelay creates a relay driven by the given on and off commands
func NewRelay(on, off []string, logger *logrus.Logger) *Relay {
	return &Relay{on: on, off: off, run: execRunner, logger: logger}
}

// Pulse switches the relay on, waits d and switches it off again. The off
// command runs even if ctx is cancelled during the wait.
func (r *Relay) Pulse(ctx context.Context, d time.Duration) error {
	if err := r.run(ctx, r.on); err != nil {
		return fmt.Errorf("relay on: %w", err)
	}
	r.logger.WithField("duration", d.String()).Debug("Relay on")

	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	if err := r.run(context.WithoutCancel(ctx), r.off); err != nil {
		return fmt.Errorf("relay off: %w", err)
	}
	r.logger.Debug("Relay off")
	return nil
}
