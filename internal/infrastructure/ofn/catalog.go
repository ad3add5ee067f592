// internal/infrastructure/ofn/catalog.go
package ofn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/pkg/jsonid"
)

type bulkProductsResponse struct {
	Products []struct {
		Variants []variantPayload `json:"variants"`
	} `json:"products"`
}

type variantPayload struct {
	ID          jsonid.ID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name_to_display"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  jsonid.ID       `json:"category_id"`
	VariantUnit string          `json:"variant_unit"`
}

type taxonPayload struct {
	ID   jsonid.ID `json:"id"`
	Name string    `json:"name"`
}

// FetchVariants lists the variants of every product supplied by shopID
func (c *Client) FetchVariants(ctx context.Context, apiKey, shopID string) ([]catalog.Variant, error) {
	path := "/api/v0/products/bulk_products?" + url.Values{"q[supplier_id_in]": {shopID}}.Encode()
	req, err := c.apiRequest(ctx, http.MethodGet, path, apiKey, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.send(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	var payload bulkProductsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	var variants []catalog.Variant
	for _, product := range payload.Products {
		for _, v := range product.Variants {
			variants = append(variants, catalog.Variant{
				ID:          v.ID.String(),
				SKU:         v.SKU,
				Name:        v.Name,
				Image:       v.Image,
				Price:       v.Price,
				CategoryID:  v.CategoryID.String(),
				VariantUnit: v.VariantUnit,
			})
		}
	}
	return variants, nil
}

// FetchTaxons lists all product categories
func (c *Client) FetchTaxons(ctx context.Context, apiKey string) ([]catalog.Taxon, error) {
	req, err := c.apiRequest(ctx, http.MethodGet, "/api/v0/taxons", apiKey, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.send(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch taxons: %w", err)
	}

	var payload []taxonPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode taxons: %w", err)
	}

	taxons := make([]catalog.Taxon, 0, len(payload))
	for _, t := range payload {
		taxons = append(taxons, catalog.Taxon{ID: t.ID.String(), Name: t.Name})
	}
	return taxons, nil
}
