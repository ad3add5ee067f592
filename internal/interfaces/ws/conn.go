// internal/interfaces/ws/conn.go
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
)

var connCounter atomic.Uint64

func connID() uint64 {
	return connCounter.Add(1)
}

// conn is the per-connection state. handle is only called from the
// connection's processing loop; send may be called from the weight stream too.
type conn struct {
	d   *Dispatcher
	t   Transport
	log *logrus.Entry

	writeMu   sync.Mutex
	sessionID string
	weight    *weightStream
}

func (c *conn) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.t.WriteJSON(v); err != nil {
		c.log.WithError(err).Debug("Failed to write event")
		return err
	}
	return nil
}

func (c *conn) handle(ctx context.Context, raw []byte) {
	c.stopWeight()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.WithError(err).Warn("Ignoring malformed message")
		return
	}

	label := env.Type
	if !Known(label) {
		label = "unknown"
	}
	c.d.metrics.Commands.WithLabelValues(label).Inc()

	id := env.SessionID
	if id == "" {
		id = c.sessionID
	}
	sess, created := c.d.Registry.Acquire(id)
	c.sessionID = sess.ID
	if created {
		_ = c.send(SessionIDEvent{Type: EventSessionID, SessionID: sess.ID})
	}

	log := c.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"type":       env.Type,
	})

	cmd, err := DecodeCommand(env.Type, raw)
	if err != nil {
		sess.Unlock()
		log.WithError(err).Warn("Ignoring invalid command")
		return
	}

	if !cmd.stateful() {
		sess.Unlock()
		c.dispatchStateless(ctx, log, sess.ID, cmd)
		return
	}

	defer sess.Unlock()
	c.d.Registry.Touch(sess)
	c.dispatchStateful(ctx, log, sess, cmd)
}

func (c *conn) dispatchStateless(ctx context.Context, log *logrus.Entry, sessionID string, cmd Command) {
	switch cmd := cmd.(type) {
	case *OpenDoor:
		c.openDoor(ctx, cmd)
	case *Login:
		c.login(ctx, log)
	case *LoadProducts:
		c.loadProducts(ctx)
	case *CheckProductCode:
		c.checkProductCode(ctx, cmd)
	case *Weight:
		c.startWeight(ctx, log)
	case *WeightStop:
		// the stream was already stopped when the frame arrived
	case *GetConfirmation:
		c.getConfirmation(ctx, cmd)
	}
}

func (c *conn) dispatchStateful(ctx context.Context, log *logrus.Entry, sess *session.Session, cmd Command) {
	switch cmd := cmd.(type) {
	case *CheckCustomerCode:
		c.checkCustomerCode(ctx, log, sess, cmd)
	case *GetCart:
		c.sendCart(sess.ID)
	case *AddToCart:
		c.addToCart(sess, cmd)
	case *UpdateQuantity:
		c.updateQuantity(sess, cmd)
	case *RemoveItem:
		c.removeItem(sess, cmd)
	case *DeleteCart:
		c.deleteCart(log, sess)
	case *Checkout:
		c.checkout(ctx, log, sess)
	}
}
