// cmd/cardlistener/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/device"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/ws"
	"github.com/your-org/nanostore-kiosk/internal/pkg/logger"
)

const (
	// a card left on the reader is reported again after this pause
	cardCooldown   = 3 * time.Second
	reconnectDelay = 5 * time.Second
)

// The card listener runs next to the door. Every card presented to the door
// reader is forwarded to the kiosk backend as an open_door command.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg)
	reader := device.NewCardReader(cfg.Kiosk.DoorCardReader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("url", cfg.Kiosk.SocketURL).Info("🚪 Card listener started")

	for ctx.Err() == nil {
		if err := listen(ctx, cfg.Kiosk.SocketURL, reader, logger); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("Card listener interrupted, reconnecting")
			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
			}
		}
	}

	logger.Info("Card listener stopped")
}

// listen forwards cards over one websocket connection until it fails
func listen(ctx context.Context, url string, reader *device.CardReader, logger *logrus.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// drain replies so the backend never blocks on writes to us
	go func() {
		defer cancel()
		for {
			var event ws.OpenDoorEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			if event.Type == ws.EventOpenDoor {
				logger.WithField("status", event.Status).Info("Door request answered")
			}
		}
	}()

	for {
		uid, err := reader.ReadUID(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return err
		}

		logger.Info("💳 Card presented at the door")
		err = conn.WriteJSON(map[string]string{
			"type": ws.TypeOpenDoor,
			"code": uid,
		})
		if err != nil {
			return err
		}

		select {
		case <-time.After(cardCooldown):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
