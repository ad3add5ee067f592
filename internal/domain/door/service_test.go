package door

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/pkg/logger"
)

type fakeRelay struct {
	pulses []time.Duration
	err    error
}

func (f *fakeRelay) Pulse(_ context.Context, d time.Duration) error {
	f.pulses = append(f.pulses, d)
	return f.err
}

type memoryRepo struct {
	mu        sync.Mutex
	events    []*Event
	createErr error
}

func (m *memoryRepo) Last(_ context.Context, fingerprint string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Fingerprint == fingerprint {
			return m.events[i], nil
		}
	}
	return nil, nil
}

func (m *memoryRepo) Create(_ context.Context, event *Event) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

type staticCustomers map[string]customer.Profile

func (s staticCustomers) Lookup(_ context.Context, _, code string) customer.Profile {
	if p, ok := s[code]; ok {
		return p
	}
	return customer.NotFound()
}

func TestService_Record_AlternatesDirectionPerCard(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(&fakeRelay{}, repo, staticCustomers{}, logger.Discard())
	ctx := context.Background()

	first, err := svc.Record(ctx, "key", "e3429c04")
	require.NoError(t, err)
	second, err := svc.Record(ctx, "key", "E3429C04")
	require.NoError(t, err)
	other, err := svc.Record(ctx, "key", "aabbccdd")
	require.NoError(t, err)
	third, err := svc.Record(ctx, "key", "e3429c04")
	require.NoError(t, err)

	assert.Equal(t, DirectionEntrance, first.Direction)
	assert.Equal(t, DirectionExit, second.Direction)
	assert.Equal(t, DirectionEntrance, other.Direction)
	assert.Equal(t, DirectionEntrance, third.Direction)
}

func TestService_Record_StoresCustomerButNotRawCode(t *testing.T) {
	repo := &memoryRepo{}
	customers := staticCustomers{"e3429c04": {Exist: true, ID: "11", FullName: "Erika Mustermann"}}
	svc := NewService(&fakeRelay{}, repo, customers, logger.Discard())

	event, err := svc.Record(context.Background(), "key", "e3429c04")
	require.NoError(t, err)

	assert.Equal(t, "11", event.CustomerID)
	assert.Equal(t, "Erika Mustermann", event.CustomerName)
	assert.Len(t, event.Fingerprint, 64)
	assert.NotContains(t, event.Fingerprint, "e3429c04")
}

func TestService_Open_PulsesRelay(t *testing.T) {
	relay := &fakeRelay{}
	repo := &memoryRepo{}
	svc := NewService(relay, repo, staticCustomers{}, logger.Discard())

	status := svc.Open(context.Background(), "key", "e3429c04", 8*time.Second)

	assert.Equal(t, StatusOpened, status)
	assert.Equal(t, []time.Duration{8 * time.Second}, relay.pulses)
	assert.Len(t, repo.events, 1)
}

func TestService_Open_LogFailureDoesNotBlockDoor(t *testing.T) {
	relay := &fakeRelay{}
	svc := NewService(relay, &memoryRepo{createErr: errors.New("db down")}, staticCustomers{}, logger.Discard())

	status := svc.Open(context.Background(), "key", "e3429c04", time.Second)

	assert.Equal(t, StatusOpened, status)
	assert.Len(t, relay.pulses, 1)
}

func TestService_Open_RelayFailure(t *testing.T) {
	svc := NewService(&fakeRelay{err: errors.New("usb relay missing")}, nil, nil, logger.Discard())

	assert.Equal(t, StatusFailed, svc.Open(context.Background(), "key", "e3429c04", time.Second))
}

func TestFingerprint_IsStable(t *testing.T) {
	assert.Equal(t, Fingerprint("E3429C04 "), Fingerprint("e3429c04"))
	assert.NotEqual(t, Fingerprint("e3429c04"), Fingerprint("e3429c05"))
}
