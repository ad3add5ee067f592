// internal/infrastructure/ofn/customers.go
package ofn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/pkg/jsonid"
)

type customersResponse struct {
	Data []struct {
		ID         jsonid.ID `json:"id"`
		Attributes struct {
			ID              jsonid.ID         `json:"id"`
			FirstName       string            `json:"first_name"`
			LastName        string            `json:"last_name"`
			Email           string            `json:"email"`
			Tags            []string          `json:"tags"`
			BillingAddress  *customer.Address `json:"billing_address"`
			ShippingAddress *customer.Address `json:"shipping_address"`
		} `json:"attributes"`
	} `json:"data"`
}

// FetchCustomers lists the customers visible to apiKey
func (c *Client) FetchCustomers(ctx context.Context, apiKey string) ([]customer.Record, error) {
	path := "/api/v1/customers?" + url.Values{"token": {apiKey}}.Encode()
	req, err := c.apiRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.send(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customers: %w", err)
	}

	var payload customersResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}

	records := make([]customer.Record, 0, len(payload.Data))
	for _, item := range payload.Data {
		attrs := item.Attributes
		id := attrs.ID
		if id == "" {
			id = item.ID
		}
		records = append(records, customer.Record{
			ID:              id.String(),
			FirstName:       attrs.FirstName,
			LastName:        attrs.LastName,
			Email:           attrs.Email,
			Tags:            attrs.Tags,
			BillingAddress:  attrs.BillingAddress,
			ShippingAddress: attrs.ShippingAddress,
		})
	}
	return records, nil
}
