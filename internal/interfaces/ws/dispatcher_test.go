package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/domain/door"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
	"github.com/your-org/nanostore-kiosk/internal/domain/settings"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/device"
	"github.com/your-org/nanostore-kiosk/internal/pkg/logger"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
)

const eventWait = 2 * time.Second

type fakeTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	select {
	case raw := <-f.in:
		return raw, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeTransport) WriteJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	f.out <- raw
	return nil
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

type fakeCatalog struct{}

func (fakeCatalog) Load(_ context.Context, _, _ string) *catalog.Catalog {
	c := catalog.Empty()
	c.Products["10"] = catalog.Product{
		ID:           "10",
		SKU:          "4006381333931",
		Name:         "Apfelsaft",
		Price:        decimal.RequireFromString("2.50"),
		CategoryID:   "3",
		CategoryName: "Drinks",
	}
	c.WeightProducts["20"] = catalog.Product{
		ID:    "20",
		Name:  "Kartoffeln",
		Price: decimal.RequireFromString("3.20"),
	}
	return c
}

type fakeCustomers struct{}

func (fakeCustomers) Lookup(_ context.Context, _, code string) customer.Profile {
	if code == "e3429c04" {
		return customer.Profile{Exist: true, ID: "11", Code: code, FullName: "Erika Mustermann"}
	}
	return customer.NotFound()
}

type fakeCheckout struct {
	mu       sync.Mutex
	requests []order.Request
	err      error
}

func (f *fakeCheckout) Run(_ context.Context, req order.Request) (*order.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(req.Cart) == 0 {
		return nil, order.ErrEmptyCart
	}
	if f.err != nil {
		return nil, f.err
	}
	return &order.Result{OrderNumber: "R123", Cart: req.Cart, Total: cart.Total(req.Cart)}, nil
}

func (f *fakeCheckout) calls() []order.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]order.Request(nil), f.requests...)
}

type fakeDoor struct {
	codes []string
}

func (f *fakeDoor) Open(_ context.Context, _, code string, _ time.Duration) door.Status {
	f.codes = append(f.codes, code)
	return door.StatusOpened
}

type fakeCards struct {
	uid string
	err error
}

func (f fakeCards) ReadUID(_ context.Context) (string, error) {
	return f.uid, f.err
}

type fakeReader struct {
	lines  chan string
	errs   chan error
	closed atomic.Bool
}

func (f *fakeReader) ReadLine() (string, error) {
	select {
	case line := <-f.lines:
		return line, nil
	case err := <-f.errs:
		return "", err
	case <-time.After(20 * time.Millisecond):
		return "", device.ErrReadTimeout
	}
}

func (f *fakeReader) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeScale struct {
	reader *fakeReader
}

func (f *fakeScale) DiscoverPort() (string, bool) {
	if f.reader == nil {
		return "", false
	}
	return "/dev/ttyUSB0", true
}

func (f *fakeScale) Open(_ string) (device.LineReader, error) {
	return f.reader, nil
}

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func isLive(r *session.Registry, id string) bool {
	_, ok := r.Get(id)
	return ok
}

type harness struct {
	dispatcher *Dispatcher
	registry   *session.Registry
	checkout   *fakeCheckout
	door       *fakeDoor
	scale      *fakeScale
}

func newHarness() *harness {
	m := metrics.New()
	h := &harness{
		registry: session.NewRegistry(cart.NewStore(), m),
		checkout: &fakeCheckout{},
		door:     &fakeDoor{},
		scale:    &fakeScale{},
	}
	h.dispatcher = NewDispatcher(Deps{
		Registry:  h.registry,
		Catalog:   fakeCatalog{},
		Customers: fakeCustomers{},
		Checkout:  h.checkout,
		Door:      h.door,
		Cards:     fakeCards{uid: "e3429c04"},
		Scale:     h.scale,
		Settings:  settings.NewPublic(fakeSettings{"thank_you": "Danke!", "ofn_api_key": "ofn-admin-secret"}),
	}, Options{
		APIKey:     "key",
		Shop:       order.Shop{DistributorID: "256", OrderCycleID: "1153", PaymentMethodID: "124"},
		RelayPulse: time.Millisecond,
	}, logger.Discard(), m)
	return h
}

type client struct {
	t         *testing.T
	transport *fakeTransport
	done      chan struct{}
}

func (h *harness) connect(t *testing.T) *client {
	t.Helper()
	c := &client{t: t, transport: newFakeTransport(), done: make(chan struct{})}
	go func() {
		defer close(c.done)
		h.dispatcher.Serve(context.Background(), c.transport)
	}()
	t.Cleanup(c.close)
	return c
}

func (c *client) sendRaw(raw string) {
	c.t.Helper()
	select {
	case c.transport.in <- []byte(raw):
	case <-time.After(eventWait):
		c.t.Fatalf("dispatcher did not accept %s", raw)
	}
}

func (c *client) send(msg map[string]interface{}) {
	c.t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(c.t, err)
	c.sendRaw(string(raw))
}

func (c *client) next() map[string]interface{} {
	c.t.Helper()
	select {
	case raw := <-c.transport.out:
		var event map[string]interface{}
		require.NoError(c.t, json.Unmarshal(raw, &event))
		return event
	case <-time.After(eventWait):
		c.t.Fatal("no event received")
		return nil
	}
}

func (c *client) nextCart() []cart.LineItem {
	c.t.Helper()
	select {
	case raw := <-c.transport.out:
		var event CartEvent
		require.NoError(c.t, json.Unmarshal(raw, &event))
		require.Equal(c.t, EventCart, event.Type)
		return event.Cart
	case <-time.After(eventWait):
		c.t.Fatal("no cart event received")
		return nil
	}
}

func (c *client) assertSilent() {
	c.t.Helper()
	select {
	case raw := <-c.transport.out:
		c.t.Fatalf("unexpected event %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *client) close() {
	_ = c.transport.Close()
	<-c.done
}

// open sends get_cart without a session id and returns the minted session id
func (c *client) open() string {
	c.t.Helper()
	c.send(map[string]interface{}{"type": TypeGetCart})
	event := c.next()
	require.Equal(c.t, EventSessionID, event["type"])
	require.Empty(c.t, c.nextCart())
	return event["session_id"].(string)
}

func addA(c *client, sessionID string) {
	c.send(map[string]interface{}{
		"type":       TypeAddToCart,
		"session_id": sessionID,
		"id":         "A",
		"name":       "Apfelsaft",
		"price":      2.50,
	})
}

func TestServe_NewSessionIDIsEmitted(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	id := c.open()

	assert.NotEmpty(t, id)
	assert.True(t, isLive(h.registry, id))
}

func TestServe_UnknownSessionIDGetsANewSession(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	c.send(map[string]interface{}{"type": TypeGetCart, "session_id": "stale"})
	event := c.next()

	require.Equal(t, EventSessionID, event["type"])
	assert.NotEqual(t, "stale", event["session_id"])
	assert.Empty(t, c.nextCart())
}

func TestServe_AddToCartMergesAndTotals(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	addA(c, id)
	require.Len(t, c.nextCart(), 1)
	addA(c, id)
	items := c.nextCart()

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "5.00", cart.Total(items).StringFixed(2))
}

func TestServe_AddToCartValidation(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeAddToCart, "session_id": id, "id": "A", "name": "x"})
	c.send(map[string]interface{}{"type": TypeAddToCart, "session_id": id, "id": "A", "name": "x", "price": -1})
	c.assertSilent()

	c.send(map[string]interface{}{"type": TypeGetCart, "session_id": id})
	assert.Empty(t, c.nextCart())
}

func TestServe_UpdateQuantityAndRemove(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	addA(c, id)
	c.nextCart()

	c.send(map[string]interface{}{"type": TypeUpdateQuantity, "session_id": id, "id": "A", "quantity": 5})
	items := c.nextCart()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	c.send(map[string]interface{}{"type": TypeRemoveItem, "session_id": id, "id": "A"})
	assert.Empty(t, c.nextCart())
}

func TestServe_CheckProductCode(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeCheckProductCode, "session_id": id, "code": "4006381333931"})
	event := c.next()
	assert.Equal(t, EventSearchProductCode, event["type"])
	assert.Equal(t, true, event["exist"])
	assert.Equal(t, "10", event["id"])

	c.send(map[string]interface{}{"type": TypeCheckProductCode, "session_id": id, "code": "ShiftKartoffeln"})
	event = c.next()
	assert.Equal(t, EventSearchProductName, event["type"])
	assert.Equal(t, true, event["exist"])
	require.NotNil(t, event["product"])

	c.send(map[string]interface{}{"type": TypeCheckProductCode, "session_id": id, "code": "0000000012345"})
	event = c.next()
	assert.Equal(t, EventSearchProductName, event["type"])
	assert.Equal(t, false, event["exist"])
	assert.Equal(t, "0000000012345", event["name"])
	assert.Nil(t, event["product"])
}

func TestServe_NumericProductCode(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.sendRaw(`{"type":"check_product_code","session_id":"` + id + `","code":4006381333931}`)
	event := c.next()

	assert.Equal(t, EventSearchProductCode, event["type"])
	assert.Equal(t, true, event["exist"])
}

func TestServe_EmptyCartCheckout(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeCheckout, "session_id": id})
	event := c.next()

	assert.Equal(t, EventInitCheckout, event["type"])
	assert.Equal(t, order.ErrEmptyCart.Error(), event["error"])
	assert.Nil(t, event["order"])
	assert.True(t, isLive(h.registry, id))
}

func TestServe_CheckoutDestroysSession(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeCheckCustomerCode, "session_id": id, "code": "e3429c04"})
	event := c.next()
	require.Equal(t, EventCustomerCodeChecked, event["type"])
	assert.Equal(t, true, event["exist"])

	addA(c, id)
	c.nextCart()

	c.send(map[string]interface{}{"type": TypeCheckout, "session_id": id})
	event = c.next()
	require.Equal(t, EventInitCheckout, event["type"])
	require.NotNil(t, event["order"])
	assert.Equal(t, "R123", event["order"].(map[string]interface{})["order_id"])

	assert.False(t, isLive(h.registry, id))

	calls := h.checkout.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, order.TriggerCheckout, calls[0].Trigger)
	assert.Equal(t, "256", calls[0].DistributorID)
	require.NotNil(t, calls[0].Customer)
	assert.Equal(t, "11", calls[0].Customer.ID)
}

func TestServe_FailedCheckoutKeepsSession(t *testing.T) {
	h := newHarness()
	h.checkout.err = errors.New("create order: boom")
	c := h.connect(t)
	id := c.open()

	addA(c, id)
	c.nextCart()

	c.send(map[string]interface{}{"type": TypeCheckout, "session_id": id})
	event := c.next()

	assert.Equal(t, "create order: boom", event["error"])
	assert.True(t, isLive(h.registry, id))
	assert.Len(t, h.registry.Carts().Get(id), 1)
}

func TestServe_MalformedAndUnknownMessagesAreIgnored(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.sendRaw("not json")
	c.sendRaw(`{"type":"dance","session_id":"` + id + `"}`)
	c.assertSilent()

	c.send(map[string]interface{}{"type": TypeGetCart, "session_id": id})
	assert.Empty(t, c.nextCart())
}

func TestServe_DeleteCartClosesSession(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	addA(c, id)
	c.nextCart()

	c.send(map[string]interface{}{"type": TypeDeleteCart, "session_id": id})
	assert.Equal(t, EventCartDeleted, c.next()["type"])
	assert.False(t, isLive(h.registry, id))

	c.send(map[string]interface{}{"type": TypeGetCart, "session_id": id})
	event := c.next()
	require.Equal(t, EventSessionID, event["type"])
	assert.NotEqual(t, id, event["session_id"])
	assert.Empty(t, c.nextCart())
}

func TestServe_MissingSessionIDUsesConnectionSession(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	c.open()

	c.send(map[string]interface{}{"type": TypeAddToCart, "id": "A", "name": "Apfelsaft", "price": "2.50"})
	assert.Len(t, c.nextCart(), 1)
	assert.Equal(t, 1, h.registry.Len())
}

func TestServe_SessionSurvivesReconnect(t *testing.T) {
	h := newHarness()
	first := h.connect(t)
	id := first.open()
	addA(first, id)
	first.nextCart()
	first.close()

	second := h.connect(t)
	second.send(map[string]interface{}{"type": TypeGetCart, "session_id": id})
	items := second.nextCart()

	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].ID)
}

func TestServe_OpenDoorLoginAndConfirmation(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeOpenDoor, "session_id": id, "code": "e3429c04"})
	event := c.next()
	assert.Equal(t, EventOpenDoor, event["type"])
	assert.Equal(t, string(door.StatusOpened), event["status"])
	assert.Equal(t, []string{"e3429c04"}, h.door.codes)

	c.send(map[string]interface{}{"type": TypeLogin, "session_id": id})
	event = c.next()
	assert.Equal(t, EventCustomerCode, event["type"])
	assert.Equal(t, "e3429c04", event["code"])

	c.send(map[string]interface{}{"type": TypeGetConfirmation, "session_id": id, "confirmation": "thank_you"})
	event = c.next()
	assert.Equal(t, "Danke!", event["value"])

	c.send(map[string]interface{}{"type": TypeGetConfirmation, "session_id": id, "confirmation": "missing"})
	event = c.next()
	assert.Equal(t, "", event["value"])
}

func TestServe_ConfirmationNeverExposesCredentials(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	for _, key := range []string{"ofn_api_key", "distributor_id", "door_relay_timeout"} {
		c.send(map[string]interface{}{"type": TypeGetConfirmation, "session_id": id, "confirmation": key})
		event := c.next()
		assert.Equal(t, EventConfirmation, event["type"])
		assert.Equal(t, key, event["confirmation"])
		assert.Equal(t, "", event["value"])
	}
}

func TestServe_LoadProducts(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeLoadProducts, "session_id": id})
	event := c.next()

	assert.Equal(t, EventLoadProducts, event["type"])
	assert.Contains(t, event["product_array"], "10")
	assert.Contains(t, event["product_weight_array"], "20")
}

func TestServe_WeightWithoutScale(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeWeight, "session_id": id})
	event := c.next()

	assert.Equal(t, EventWeight, event["type"])
	assert.Equal(t, "Scale not found", event["error"])
}

func TestServe_WeightStreamStopsOnNextMessage(t *testing.T) {
	h := newHarness()
	reader := &fakeReader{lines: make(chan string)}
	h.scale.reader = reader
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeWeight, "session_id": id})
	reader.lines <- "ST,GS,  0.254kg"
	event := c.next()
	assert.Equal(t, EventWeight, event["type"])
	assert.Equal(t, "0.254", event["value"])

	c.send(map[string]interface{}{"type": TypeWeightStop, "session_id": id})
	require.Eventually(t, reader.closed.Load, eventWait, 10*time.Millisecond)
	c.assertSilent()
}

func TestServe_WeightStreamClosedWithConnection(t *testing.T) {
	h := newHarness()
	reader := &fakeReader{lines: make(chan string)}
	h.scale.reader = reader
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeWeight, "session_id": id})
	reader.lines <- "ST,GS,  1.020kg"
	event := c.next()
	assert.Equal(t, "1.020", event["value"])

	c.close()

	assert.True(t, reader.closed.Load())
}

func TestServe_WeightStreamReportsDeviceError(t *testing.T) {
	h := newHarness()
	reader := &fakeReader{lines: make(chan string), errs: make(chan error, 1)}
	h.scale.reader = reader
	c := h.connect(t)
	id := c.open()

	c.send(map[string]interface{}{"type": TypeWeight, "session_id": id})
	reader.errs <- errors.New("device disconnected")

	event := c.next()
	assert.Equal(t, EventWeight, event["type"])
	assert.Equal(t, "device disconnected", event["error"])
	require.Eventually(t, reader.closed.Load, eventWait, 10*time.Millisecond)
	c.assertSilent()
}

func TestServe_DisconnectKeepsSession(t *testing.T) {
	h := newHarness()
	c := h.connect(t)
	id := c.open()
	c.close()

	assert.True(t, isLive(h.registry, id))
}
