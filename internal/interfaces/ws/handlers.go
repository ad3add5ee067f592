// internal/interfaces/ws/handlers.go
package ws

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
)

func (c *conn) openDoor(ctx context.Context, cmd *OpenDoor) {
	status := c.d.Door.Open(ctx, c.d.options.APIKey, cmd.Code, c.d.options.RelayPulse)
	_ = c.send(OpenDoorEvent{Type: EventOpenDoor, Status: status})
}

func (c *conn) login(ctx context.Context, log *logrus.Entry) {
	uid, err := c.d.Cards.ReadUID(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.WithError(err).Warn("Card read failed")
		_ = c.send(CustomerCodeEvent{Type: EventCustomerCode, Error: err.Error()})
		return
	}
	_ = c.send(CustomerCodeEvent{Type: EventCustomerCode, Code: uid})
}

func (c *conn) checkCustomerCode(ctx context.Context, log *logrus.Entry, sess *session.Session, cmd *CheckCustomerCode) {
	profile := c.d.Customers.Lookup(ctx, c.d.options.APIKey, cmd.Code.String())
	sess.BindCustomer(profile)

	log.WithFields(logrus.Fields{
		"exist":       profile.Exist,
		"customer_id": profile.ID,
	}).Info("Customer code checked")

	_ = c.send(CustomerCodeCheckedEvent{Type: EventCustomerCodeChecked, Profile: profile})
}

func (c *conn) sendCart(sessionID string) {
	_ = c.send(CartEvent{Type: EventCart, Cart: c.d.Registry.Carts().Get(sessionID)})
}

func (c *conn) loadProducts(ctx context.Context) {
	products := c.d.Catalog.Load(ctx, c.d.options.APIKey, c.d.options.Shop.DistributorID)
	_ = c.send(LoadProductsEvent{Type: EventLoadProducts, Catalog: products})
}

func (c *conn) checkProductCode(ctx context.Context, cmd *CheckProductCode) {
	code := catalog.NormalizeCode(cmd.Code.String())
	products := c.d.Catalog.Load(ctx, c.d.options.APIKey, c.d.options.Shop.DistributorID)

	if p, ok := products.FindBySKU(code); ok {
		_ = c.send(SearchProductCodeEvent{
			Type:         EventSearchProductCode,
			Exist:        true,
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			Img:          p.Image,
			CategoryID:   p.CategoryID,
			CategoryName: p.CategoryName,
		})
		return
	}

	event := SearchProductNameEvent{Type: EventSearchProductName, Name: code}
	if p, ok := products.FindWeightByName(code); ok {
		event.Exist = true
		event.Product = &p
	}
	_ = c.send(event)
}

func (c *conn) addToCart(sess *session.Session, cmd *AddToCart) {
	quantity := 1
	if cmd.Quantity != nil {
		quantity = *cmd.Quantity
	}

	c.d.Registry.Carts().Add(sess.ID, cart.LineItem{
		ID:           cmd.ID.String(),
		Name:         cmd.Name,
		Price:        *cmd.Price,
		Quantity:     quantity,
		Image:        cmd.Img,
		CategoryID:   cmd.CategoryID.String(),
		CategoryName: cmd.CategoryName,
		Gramm:        cmd.Gramm,
	})
	c.sendCart(sess.ID)
}

func (c *conn) updateQuantity(sess *session.Session, cmd *UpdateQuantity) {
	c.d.Registry.Carts().SetQuantity(sess.ID, cmd.ID.String(), *cmd.Quantity)
	c.sendCart(sess.ID)
}

func (c *conn) removeItem(sess *session.Session, cmd *RemoveItem) {
	c.d.Registry.Carts().Remove(sess.ID, cmd.ID.String())
	c.sendCart(sess.ID)
}

func (c *conn) deleteCart(log *logrus.Entry, sess *session.Session) {
	c.d.Registry.Destroy(sess)
	log.Info("🗑️ Cart deleted, session closed")
	_ = c.send(CartDeletedEvent{Type: EventCartDeleted})
}

// checkout runs the order pipeline for the session. The pipeline is not
// cancelled when the terminal disconnects.
func (c *conn) checkout(ctx context.Context, log *logrus.Entry, sess *session.Session) {
	items, profile := c.d.Registry.Snapshot(sess)

	result, err := c.d.Checkout.Run(context.WithoutCancel(ctx), order.Request{
		Shop:      c.d.options.Shop,
		SessionID: sess.ID,
		Trigger:   order.TriggerCheckout,
		Cart:      items,
		Customer:  profile,
	})
	if err != nil {
		log.WithError(err).Warn("Checkout failed, session kept")
		_ = c.send(InitCheckoutEvent{Type: EventInitCheckout, Error: err.Error()})
		return
	}

	c.d.Registry.Destroy(sess)
	_ = c.send(InitCheckoutEvent{Type: EventInitCheckout, Order: result})
}

func (c *conn) getConfirmation(ctx context.Context, cmd *GetConfirmation) {
	value, err := c.d.Settings.Get(ctx, cmd.Confirmation)
	if err != nil {
		value = ""
	}
	_ = c.send(ConfirmationEvent{
		Type:         EventConfirmation,
		Confirmation: cmd.Confirmation,
		Value:        value,
	})
}
