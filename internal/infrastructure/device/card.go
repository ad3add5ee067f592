// internal/infrastructure/device/card.go
package device

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoCardReader = errors.New("no card reader found")
	ErrCardStatus   = errors.New("card returned error status")
)

// getUIDCommand is the PC/SC pseudo-APDU that returns the card UID
var getUIDCommand = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

const cardPollInterval = 500 * time.Millisecond

// CardReader reads card UIDs from a PC/SC reader
type CardReader struct {
	name   string
	logger *logrus.Logger
}

// NewCardReader creates a card reader. An empty name selects the first reader;
// otherwise the first reader whose name contains name is used.
func NewCardReader(name string, logger *logrus.Logger) *CardReader {
	return &CardReader{name: name, logger: logger}
}

// ReadUID waits for a card and returns its UID as lowercase hex.
// Cards answering with a non-success status are skipped.
func (r *CardReader) ReadUID(ctx context.Context) (string, error) {
	sc, err := scard.EstablishContext()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCardReader, err)
	}
	defer sc.Release()

	stop := context.AfterFunc(ctx, func() { _ = sc.Cancel() })
	defer stop()

	reader, err := r.pick(sc)
	if err != nil {
		return "", err
	}

	states := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := sc.GetStatusChange(states, cardPollInterval)
		if errors.Is(err, scard.ErrTimeout) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("card reader status: %w", err)
		}

		states[0].CurrentState = states[0].EventState
		if states[0].EventState&scard.StatePresent == 0 {
			continue
		}

		uid, err := r.readPresent(sc, reader)
		if err != nil {
			r.logger.WithError(err).Warn("Invalid card read, waiting for the next card")
			continue
		}
		return uid, nil
	}
}

func (r *CardReader) pick(sc *scard.Context) (string, error) {
	readers, err := sc.ListReaders()
	if err != nil || len(readers) == 0 {
		return "", ErrNoCardReader
	}
	if r.name == "" {
		return readers[0], nil
	}
	for _, reader := range readers {
		if strings.Contains(reader, r.name) {
			return reader, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoCardReader, r.name)
}

func (r *CardReader) readPresent(sc *scard.Context, reader string) (string, error) {
	card, err := sc.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return "", fmt.Errorf("connect card: %w", err)
	}
	defer card.Disconnect(scard.LeaveCard)

	rsp, err := card.Transmit(getUIDCommand)
	if err != nil {
		return "", fmt.Errorf("transmit: %w", err)
	}
	return parseUIDResponse(rsp)
}

// parseUIDResponse splits data and the trailing status word. Only 90 00 is success.
func parseUIDResponse(rsp []byte) (string, error) {
	if len(rsp) < 2 {
		return "", fmt.Errorf("%w: short response", ErrCardStatus)
	}
	data, sw1, sw2 := rsp[:len(rsp)-2], rsp[len(rsp)-2], rsp[len(rsp)-1]
	if sw1 != 0x90 || sw2 != 0x00 {
		return "", fmt.Errorf("%w: %02X %02X", ErrCardStatus, sw1, sw2)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty uid", ErrCardStatus)
	}
	return hex.EncodeToString(data), nil
}
