package device

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/nanostore-kiosk/internal/pkg/logger"
)

func TestParseUIDResponse(t *testing.T) {
	uid, err := parseUIDResponse([]byte{0xE3, 0x42, 0x9C, 0x04, 0x90, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "e3429c04", uid)

	_, err = parseUIDResponse([]byte{0x63, 0x00})
	assert.ErrorIs(t, err, ErrCardStatus)

	_, err = parseUIDResponse([]byte{0x90, 0x00})
	assert.ErrorIs(t, err, ErrCardStatus)

	_, err = parseUIDResponse([]byte{0x90})
	assert.ErrorIs(t, err, ErrCardStatus)
}

func TestParseWeight(t *testing.T) {
	cases := map[string]string{
		"ST,GS,+  0.254kg\r\n": "0.254",
		"  1.5 kg":             "1.5",
		"W: -0.020":            "-0.020",
		"420 g":                "420",
	}
	for line, want := range cases {
		got, ok := ParseWeight(line)
		assert.True(t, ok, line)
		assert.Equal(t, want, got, line)
	}

	_, ok := ParseWeight("ST,GS,kg")
	assert.False(t, ok)
}

// chunkedReader returns one chunk per Read; an empty chunk simulates a timeout
type chunkedReader struct {
	chunks []string
	closed bool
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, nil
	}
	chunk := c.chunks[0]
	c.chunks = c.chunks[1:]
	return copy(p, chunk), nil
}

func (c *chunkedReader) Close() error {
	c.closed = true
	return nil
}

var _ io.ReadCloser = (*chunkedReader)(nil)

func TestLineReader(t *testing.T) {
	src := &chunkedReader{chunks: []string{"0.2", "54kg\r\n0.3", "", "", "1.0kg\n"}}
	reader := newLineReader(src)

	line, err := reader.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "0.254kg\r\n", line)

	line, err = reader.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "0.3", line)

	_, err = reader.ReadLine()
	assert.ErrorIs(t, err, ErrReadTimeout)

	line, err = reader.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "1.0kg\n", line)

	require.NoError(t, reader.Close())
	assert.True(t, src.closed)
}

func TestRelay_Pulse(t *testing.T) {
	var calls [][]string
	relay := NewRelay([]string{"relay", "on"}, []string{"relay", "off"}, logger.Discard())
	relay.run = func(_ context.Context, argv []string) error {
		calls = append(calls, argv)
		return nil
	}

	start := time.Now()
	require.NoError(t, relay.Pulse(context.Background(), 20*time.Millisecond))

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, [][]string{{"relay", "on"}, {"relay", "off"}}, calls)
}

func TestRelay_Pulse_CancelledStillSwitchesOff(t *testing.T) {
	var offCtxErr error
	relay := NewRelay([]string{"on"}, []string{"off"}, logger.Discard())
	relay.run = func(ctx context.Context, argv []string) error {
		if argv[0] == "off" {
			offCtxErr = ctx.Err()
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, relay.Pulse(ctx, time.Hour))
	assert.NoError(t, offCtxErr)
}

func TestRelay_Pulse_OnFailure(t *testing.T) {
	relay := NewRelay([]string{"on"}, []string{"off"}, logger.Discard())
	relay.run = func(_ context.Context, argv []string) error {
		return errors.New("device not found")
	}

	err := relay.Pulse(context.Background(), time.Millisecond)
	assert.ErrorContains(t, err, "relay on")
}
