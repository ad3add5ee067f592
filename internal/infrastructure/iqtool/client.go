// internal/infrastructure/iqtool/client.go
package iqtool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/domain/settings"
	"github.com/your-org/nanostore-kiosk/internal/pkg/auth"
)

var errUnauthorized = errors.New("iq-tool rejected token")

// Client talks to the IQ-Tool settings API and invoice webhook
type Client struct {
	baseURL     string
	email       string
	password    string
	invoicePath string
	http        *http.Client
	tokens      *auth.TokenCache
	logger      *logrus.Logger
}

// NewClient creates a new IQ-Tool client
func NewClient(cfg config.IQToolConfig, logger *logrus.Logger) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		email:       cfg.Email,
		password:    cfg.Password,
		invoicePath: cfg.InvoicePath,
		http:        &http.Client{Timeout: cfg.RequestTimeout},
		logger:      logger,
	}
	c.tokens = auth.NewTokenCache(c.obtainToken, time.Minute)
	return c
}

// Configured reports whether credentials are set
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.email != ""
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

type tokenResponse struct {
	Token  string `json:"token"`
	Access string `json:"access"`
}

func (c *Client) obtainToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("token-obtain/"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.send(req)
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	if resp.Access != "" {
		return resp.Access, nil
	}
	return "", fmt.Errorf("token response contains no token")
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, settings.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// authorized sends a request built by build with the JWT header, renewing
// the token once if it is rejected
func (c *Client) authorized(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Get(ctx)
		if err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "JWT "+token)
		req.Header.Set("Content-Type", "application/json")

		body, err := c.send(req)
		if errors.Is(err, errUnauthorized) && attempt == 0 {
			c.tokens.Invalidate()
			continue
		}
		return body, err
	}
}

// Get returns a nanostore setting. Unknown keys return settings.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if !c.Configured() {
		return "", settings.ErrNotFound
	}

	target := c.endpoint("nanostore-settings/") + "?" + url.Values{"key": {key}}.Encode()
	body, err := c.authorized(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode setting: %w", err)
	}
	return rawValue(resp.Value)
}

func rawValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", settings.ErrNotFound
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}

// Invoice asks IQ-Tool to generate and send the invoice for the order
func (c *Client) Invoice(ctx context.Context, result *order.Result) error {
	if !c.Configured() {
		return fmt.Errorf("iq-tool credentials not configured")
	}

	payload, err := json.Marshal(map[string]string{"order_no": result.OrderNumber})
	if err != nil {
		return err
	}

	_, err = c.authorized(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.invoicePath), bytes.NewReader(payload))
	})
	if err != nil {
		return fmt.Errorf("invoice webhook failed: %w", err)
	}

	c.logger.WithField("order_number", result.OrderNumber).Info("🧾 Invoice requested")
	return nil
}
