// internal/infrastructure/ofn/orders.go
package ofn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
)

var orderNumberPattern = regexp.MustCompile(`Order\s*#\s*([A-Z0-9]+)`)

// Authenticate logs in as the admin user and returns the session cookies
func (c *Client) Authenticate(ctx context.Context) (*order.AdminSession, error) {
	client := c.browser()

	token, err := c.authenticityToken(ctx, client)
	if err != nil {
		return nil, err
	}

	loginURL := c.url("/user/spree_user/sign_in")
	form := url.Values{
		"authenticity_token":   {token},
		"spree_user[email]":    {c.adminEmail},
		"spree_user[password]": {c.adminPassword},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)

	if _, err := c.send(client, req); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	session := &order.AdminSession{}
	for _, cookie := range client.Jar.Cookies(c.baseURL) {
		switch cookie.Name {
		case cookieSession:
			session.SessionID = cookie.Value
		case cookieXSRF:
			session.XSRFToken = cookie.Value
		}
	}
	if !session.Valid() {
		return nil, fmt.Errorf("login did not return session cookies")
	}

	c.logger.Info("🔑 Logged in to Open Food Network")
	return session, nil
}

func (c *Client) sessionBrowser(session *order.AdminSession) *http.Client {
	return c.browser(
		&http.Cookie{Name: cookieSession, Value: session.SessionID},
		&http.Cookie{Name: cookieXSRF, Value: session.XSRFToken},
	)
}

func (c *Client) postForm(ctx context.Context, client *http.Client, method, path string, form url.Values, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.send(client, req)
}

// CreateOrder creates an empty order for the distributor and order cycle and
// returns its number
func (c *Client) CreateOrder(ctx context.Context, session *order.AdminSession, distributorID, orderCycleID string) (string, error) {
	client := c.sessionBrowser(session)

	token, err := c.authenticityToken(ctx, client)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"authenticity_token":    {token},
		"order[distributor_id]": {distributorID},
		"order[order_cycle_id]": {orderCycleID},
	}
	body, err := c.postForm(ctx, client, http.MethodPost, "/admin/orders/", form, map[string]string{
		"Referer": c.url("/admin/orders/new"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	return parseOrderNumber(body)
}

func parseOrderNumber(body []byte) (string, error) {
	match := orderNumberPattern.FindSubmatch(body)
	if match == nil {
		return "", order.ErrOrderNumberNotFound
	}
	return string(match[1]), nil
}

// UpdateCustomer attaches the customer's email and addresses to the order
func (c *Client) UpdateCustomer(ctx context.Context, session *order.AdminSession, orderNumber string, profile *customer.Profile) error {
	client := c.sessionBrowser(session)

	token, err := c.authenticityToken(ctx, client)
	if err != nil {
		return err
	}

	form := customerForm(profile)
	form.Set("authenticity_token", token)

	path := fmt.Sprintf("/admin/orders/%s/customer", url.PathEscape(orderNumber))
	if _, err := c.postForm(ctx, client, http.MethodPut, path, form, nil); err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

type lineItemPayload struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// AddLineItem adds one cart line to the order's shipment
func (c *Client) AddLineItem(ctx context.Context, _ *order.AdminSession, orderNumber string, item cart.LineItem) error {
	payload, err := json.Marshal(lineItemPayload{
		VariantID: item.ID,
		Quantity:  item.Quantity,
		Price:     item.Price.StringFixed(2),
	})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v0/orders/%s/shipments.json?%s",
		url.PathEscape(orderNumber), url.Values{"token": {c.apiKey}}.Encode())
	req, err := c.apiRequest(ctx, http.MethodPost, path, "", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	if _, err := c.send(c.http, req); err != nil {
		return fmt.Errorf("failed to add line item: %w", err)
	}
	return nil
}

// RecordPayment records a payment of amount against the order
func (c *Client) RecordPayment(ctx context.Context, session *order.AdminSession, orderNumber, paymentMethodID string, amount decimal.Decimal) error {
	client := c.sessionBrowser(session)

	xsrf, err := url.QueryUnescape(session.XSRFToken)
	if err != nil {
		xsrf = session.XSRFToken
	}

	form := url.Values{
		"payment[payment_method_id]": {paymentMethodID},
		"payment[amount]":            {amount.StringFixed(2)},
		"order_id":                   {orderNumber},
	}
	path := fmt.Sprintf("/admin/orders/%s/payments.json", url.PathEscape(orderNumber))
	_, err = c.postForm(ctx, client, http.MethodPost, path, form, map[string]string{
		"Referer":      c.url(fmt.Sprintf("/admin/orders/%s/payments/new", url.PathEscape(orderNumber))),
		"X-XSRF-Token": xsrf,
	})
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}
