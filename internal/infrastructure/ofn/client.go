// internal/infrastructure/ofn/client.go
package ofn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
)

const (
	cookieSession = "_ofn_session_id"
	cookieXSRF    = "XSRF-TOKEN"
)

var ErrCSRFTokenNotFound = errors.New("csrf token not found on page")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Client talks to an Open Food Network instance
type Client struct {
	baseURL       *url.URL
	adminEmail    string
	adminPassword string
	apiKey        string
	http          *http.Client
	logger        *logrus.Logger
}

// NewClient creates a new Open Food Network client
func NewClient(cfg config.OFNConfig, logger *logrus.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.InstanceURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid OFN instance URL: %w", err)
	}

	return &Client{
		baseURL:       base,
		adminEmail:    cfg.AdminEmail,
		adminPassword: cfg.AdminPassword,
		apiKey:        cfg.APIKey,
		http:          &http.Client{Timeout: cfg.RequestTimeout},
		logger:        logger,
	}, nil
}

// InstanceURL returns the base URL of the instance
func (c *Client) InstanceURL() string {
	return c.baseURL.String()
}

func (c *Client) url(path string) string {
	return c.baseURL.String() + path
}

// browser returns an http client with its own cookie jar, optionally
// preloaded with the given cookies
func (c *Client) browser(cookies ...*http.Cookie) *http.Client {
	jar, _ := cookiejar.New(nil)
	if len(cookies) > 0 {
		jar.SetCookies(c.baseURL, cookies)
	}
	return &http.Client{
		Timeout: c.http.Timeout,
		Jar:     jar,
	}
}

// send executes req and returns the body of a 2xx response
func (c *Client) send(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &StatusError{
			Method: req.Method,
			URL:    req.URL.Path,
			Code:   resp.StatusCode,
			Body:   truncate(string(body), 200),
		}
	}

	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
		"status": resp.StatusCode,
	}).Debug("OFN request completed")

	return body, nil
}

func (c *Client) apiRequest(ctx context.Context, method, path, apiKey string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json;charset=UTF-8")
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Spree-Token", apiKey)
	}
	return req, nil
}

// authenticityToken scrapes the Rails CSRF token from the storefront page
func (c *Client) authenticityToken(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/"), nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to load login page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse login page: %w", err)
	}

	return extractToken(doc)
}

func extractToken(doc *goquery.Document) (string, error) {
	if token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content"); ok && token != "" {
		return token, nil
	}
	if token, ok := doc.Find(`input[name="authenticity_token"]`).Attr("value"); ok && token != "" {
		return token, nil
	}
	return "", ErrCSRFTokenNotFound
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
