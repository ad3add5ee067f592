// internal/interfaces/ws/weight.go
package ws

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/device"
)

// weightStream forwards scale readings until it is stopped or the scale fails
type weightStream struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *conn) startWeight(ctx context.Context, log *logrus.Entry) {
	port, ok := c.d.Scale.DiscoverPort()
	if !ok {
		_ = c.send(WeightEvent{Type: EventWeight, Error: "Scale not found"})
		return
	}

	reader, err := c.d.Scale.Open(port)
	if err != nil {
		log.WithError(err).Warn("Failed to open scale")
		_ = c.send(WeightEvent{Type: EventWeight, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	stream := &weightStream{cancel: cancel, done: make(chan struct{})}
	c.weight = stream

	go func() {
		defer close(stream.done)
		defer reader.Close()

		for ctx.Err() == nil {
			line, err := reader.ReadLine()
			if errors.Is(err, device.ErrReadTimeout) {
				continue
			}
			if err != nil {
				if ctx.Err() == nil {
					log.WithError(err).Warn("Scale read failed")
					_ = c.send(WeightEvent{Type: EventWeight, Error: err.Error()})
				}
				return
			}
			value, ok := device.ParseWeight(line)
			if !ok || ctx.Err() != nil {
				continue
			}
			if err := c.send(WeightEvent{Type: EventWeight, Value: value}); err != nil {
				return
			}
		}
	}()
}

// stopWeight cancels an active stream and waits until the port is closed
func (c *conn) stopWeight() {
	if c.weight == nil {
		return
	}
	c.weight.cancel()
	<-c.weight.done
	c.weight = nil
}
