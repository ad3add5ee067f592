// internal/infrastructure/device/scale.go
package device

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var (
	ErrScaleNotFound = errors.New("scale not found")
	ErrReadTimeout   = errors.New("scale read timeout")
)

var weightPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// LineReader reads text lines from an open device
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// Scale finds and opens the USB serial scale
type Scale struct {
	vid      string
	pid      string
	baudRate int
	readWait time.Duration
	logger   *logrus.Logger
}

// NewScale creates a scale matched by USB vendor and product id
func NewScale(vid, pid string, baudRate int, readWait time.Duration, logger *logrus.Logger) *Scale {
	return &Scale{
		vid:      vid,
		pid:      pid,
		baudRate: baudRate,
		readWait: readWait,
		logger:   logger,
	}
}

// DiscoverPort returns the serial port of the first USB device matching VID/PID
func (s *Scale) DiscoverPort() (string, bool) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list serial ports")
		return "", false
	}
	for _, port := range ports {
		if port.IsUSB && strings.EqualFold(port.VID, s.vid) && strings.EqualFold(port.PID, s.pid) {
			return port.Name, true
		}
	}
	return "", false
}

// Open opens port at the configured baud rate
func (s *Scale) Open(port string) (LineReader, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	if err := p.SetReadTimeout(s.readWait); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return newLineReader(p), nil
}

// lineReader splits a timeout-based reader into lines. A read that returns
// no data counts as a timeout; a partial line is returned on timeout.
type lineReader struct {
	src     io.ReadCloser
	pending []byte
	buf     [64]byte
}

func newLineReader(src io.ReadCloser) *lineReader {
	return &lineReader{src: src}
}

func (l *lineReader) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(l.pending, '\n'); i >= 0 {
			line := string(l.pending[:i+1])
			l.pending = l.pending[i+1:]
			return line, nil
		}

		n, err := l.src.Read(l.buf[:])
		if n > 0 {
			l.pending = append(l.pending, l.buf[:n]...)
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if len(l.pending) > 0 {
			line := string(l.pending)
			l.pending = nil
			return line, nil
		}
		return "", ErrReadTimeout
	}
}

func (l *lineReader) Close() error {
	return l.src.Close()
}

// ParseWeight returns the first numeric token of a scale line
func ParseWeight(line string) (string, bool) {
	match := weightPattern.FindString(line)
	return match, match != ""
}
