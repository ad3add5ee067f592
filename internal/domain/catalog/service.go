// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/nanostore-kiosk/internal/pkg/breaker"
	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared fetch that no single caller can cancel
const fetchTimeout = 30 * time.Second

// Source fetches raw catalog data from the commerce platform
type Source interface {
	FetchVariants(ctx context.Context, apiKey, shopID string) ([]Variant, error)
	FetchTaxons(ctx context.Context, apiKey string) ([]Taxon, error)
}

type rawCatalog struct {
	variants []Variant
	taxons   []Taxon
}

// Service loads and reshapes the product catalog.
// Nothing is cached; concurrent loads for the same shop share one fetch.
type Service struct {
	source      Source
	instanceURL string
	logger      *logrus.Logger
	breaker     *gobreaker.CircuitBreaker[rawCatalog]
	group       singleflight.Group
}

// NewService creates a new catalog service. instanceURL prefixes relative image paths.
func NewService(source Source, instanceURL string, logger *logrus.Logger) *Service {
	return &Service{
		source:      source,
		instanceURL: strings.TrimRight(instanceURL, "/"),
		logger:      logger,
		breaker:     breaker.New[rawCatalog]("catalog", logger),
	}
}

// Load fetches products and categories. Failures are logged and yield an empty catalog.
// Concurrent loads share one fetch, which keeps running when a caller gives up.
func (s *Service) Load(ctx context.Context, apiKey, shopID string) *Catalog {
	ch := s.group.DoChan(shopID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.breaker.Execute(func() (rawCatalog, error) {
			variants, err := s.source.FetchVariants(fetchCtx, apiKey, shopID)
			if err != nil {
				return rawCatalog{}, err
			}
			taxons, err := s.source.FetchTaxons(fetchCtx, apiKey)
			if err != nil {
				return rawCatalog{}, err
			}
			return rawCatalog{variants: variants, taxons: taxons}, nil
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		s.logger.WithError(ctx.Err()).WithField("shop_id", shopID).Debug("Product load abandoned by caller")
		return Empty()
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.WithError(res.Err).WithField("shop_id", shopID).Warn("Failed to load products")
		return Empty()
	}

	raw := res.Val.(rawCatalog)
	return s.reshape(raw.variants, raw.taxons)
}

func (s *Service) reshape(variants []Variant, taxons []Taxon) *Catalog {
	names := make(map[string]string, len(taxons))
	for _, t := range taxons {
		names[t.ID] = t.Name
	}

	out := Empty()
	for _, v := range variants {
		p := Product{
			ID:           v.ID,
			SKU:          v.SKU,
			Name:         v.Name,
			Image:        s.absoluteImage(v.Image),
			Price:        v.Price,
			CategoryID:   v.CategoryID,
			CategoryName: names[v.CategoryID],
		}
		if v.VariantUnit == "weight" {
			out.WeightProducts[v.ID] = p
		} else {
			out.Products[v.ID] = p
		}
	}

	for _, table := range []map[string]Product{out.WeightProducts, out.Products} {
		for _, p := range table {
			if p.CategoryID == "" {
				continue
			}
			name, ok := names[p.CategoryID]
			if !ok {
				continue
			}
			out.Categories[p.CategoryID] = Category{ID: p.CategoryID, Name: name}
		}
	}

	return out
}

func (s *Service) absoluteImage(image string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(s.instanceURL, "https://"), "http://")
	if host != "" && strings.Contains(image, host) {
		return image
	}
	return s.instanceURL + image
}

// NormalizeCode strips keyboard-wedge noise from a scanned code and lowercases it
func NormalizeCode(code string) string {
	code = strings.ReplaceAll(code, "Shift", "")
	code = strings.ReplaceAll(code, "Meta", "")
	return strings.ToLower(code)
}

// FindBySKU looks code up among unit-priced products, case-insensitively
func (c *Catalog) FindBySKU(code string) (Product, bool) {
	code = strings.ToLower(code)
	if code == "" {
		return Product{}, false
	}
	for _, id := range sortedIDs(c.Products) {
		p := c.Products[id]
		if p.SKU != "" && strings.ToLower(p.SKU) == code {
			return p, true
		}
	}
	return Product{}, false
}

// FindWeightByName looks name up among weight-priced products, case-insensitively
func (c *Catalog) FindWeightByName(name string) (Product, bool) {
	if name == "" {
		return Product{}, false
	}
	for _, id := range sortedIDs(c.WeightProducts) {
		p := c.WeightProducts[id]
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Product{}, false
}

func sortedIDs(m map[string]Product) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
