// internal/interfaces/ws/dispatcher.go
package ws

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/domain/door"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/device"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
)

// Transport is one message-oriented client connection
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// CatalogLoader loads the product catalog of a shop
type CatalogLoader interface {
	Load(ctx context.Context, apiKey, shopID string) *catalog.Catalog
}

// CustomerLookup resolves card codes to customers
type CustomerLookup interface {
	Lookup(ctx context.Context, apiKey, code string) customer.Profile
}

// DoorOpener pulses the door relay and logs the passage
type DoorOpener interface {
	Open(ctx context.Context, apiKey, code string, pulse time.Duration) door.Status
}

// CardReader reads a card UID from the terminal's reader
type CardReader interface {
	ReadUID(ctx context.Context) (string, error)
}

// Scale finds and opens the weighing scale
type Scale interface {
	DiscoverPort() (string, bool)
	Open(port string) (device.LineReader, error)
}

// Settings resolves display messages and other settings by key
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
}

// Deps are the collaborators of the dispatcher
type Deps struct {
	Registry  *session.Registry
	Catalog   CatalogLoader
	Customers CustomerLookup
	Checkout  session.Checkout
	Door      DoorOpener
	Cards     CardReader
	Scale     Scale
	Settings  Settings
}

// Options are the effective shop settings resolved at startup
type Options struct {
	APIKey     string
	Shop       order.Shop
	RelayPulse time.Duration
}

// Dispatcher serves kiosk terminal connections
type Dispatcher struct {
	Deps
	options Options
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(deps Deps, options Options, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		Deps:    deps,
		options: options,
		logger:  logger,
		metrics: m,
	}
}

// Serve processes the messages of one connection in order until the
// connection is closed or ctx is cancelled. Closing a connection never
// destroys its session.
func (d *Dispatcher) Serve(ctx context.Context, t Transport) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &conn{
		d:   d,
		t:   t,
		log: d.logger.WithField("conn", connID()),
	}
	c.log.Info("🔌 Terminal connected")

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	frames := make(chan []byte)
	go func() {
		defer cancel()
		defer close(frames)
		for {
			raw, err := t.ReadMessage()
			if err != nil {
				c.log.WithError(err).Debug("Read loop finished")
				return
			}
			select {
			case frames <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	defer c.stopWeight()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Terminal disconnected")
			return
		case raw, ok := <-frames:
			if !ok {
				c.log.Info("Terminal disconnected")
				return
			}
			c.handle(ctx, raw)
		}
	}
}
