// internal/domain/customer/service.go
package customer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/nanostore-kiosk/internal/pkg/breaker"
	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared fetch that no single caller can cancel
const fetchTimeout = 30 * time.Second

// Source lists customers from the commerce platform
type Source interface {
	FetchCustomers(ctx context.Context, apiKey string) ([]Record, error)
}

// Directory resolves card and membership codes to customer profiles
type Directory struct {
	source  Source
	logger  *logrus.Logger
	breaker *gobreaker.CircuitBreaker[[]Record]
	group   singleflight.Group
}

// NewDirectory creates a new customer directory
func NewDirectory(source Source, logger *logrus.Logger) *Directory {
	return &Directory{
		source:  source,
		logger:  logger,
		breaker: breaker.New[[]Record]("customers", logger),
	}
}

// List fetches all customers. Failures are logged and yield an empty list.
// Concurrent callers share one fetch, which keeps running when a caller
// gives up.
func (d *Directory) List(ctx context.Context, apiKey string) []Record {
	ch := d.group.DoChan(apiKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return d.breaker.Execute(func() ([]Record, error) {
			return d.source.FetchCustomers(fetchCtx, apiKey)
		})
	})

	select {
	case <-ctx.Done():
		d.logger.WithError(ctx.Err()).Debug("Customer fetch abandoned by caller")
		return []Record{}
	case res := <-ch:
		if res.Err != nil {
			d.logger.WithError(res.Err).Warn("Failed to fetch customers")
			return []Record{}
		}
		return res.Val.([]Record)
	}
}

// Lookup fetches the directory and resolves code against it
func (d *Directory) Lookup(ctx context.Context, apiKey, code string) Profile {
	return Resolve(code, d.List(ctx, apiKey))
}

// Resolve finds the first customer tagged with code:<code> or code=<code>.
// The IBAN is read from an iban:<value> tag on the same customer.
func Resolve(code string, records []Record) Profile {
	code = strings.TrimSpace(code)
	if code == "" {
		return NotFound()
	}

	pattern := regexp.MustCompile(fmt.Sprintf(`(?i)code[:=]%s(\b|;|$)`, regexp.QuoteMeta(code)))

	for _, record := range records {
		found := false
		iban := ""
		for _, tag := range record.Tags {
			if pattern.MatchString(tag) {
				found = true
			}
			if strings.HasPrefix(strings.ToLower(tag), "iban:") {
				iban = strings.TrimSpace(tag[len("iban:"):])
			}
		}
		if !found {
			continue
		}

		profile := Profile{
			Exist:       true,
			ID:          record.ID,
			Code:        code,
			FullName:    strings.TrimSpace(record.FirstName + " " + record.LastName),
			FirstName:   record.FirstName,
			LastName:    record.LastName,
			Email:       record.Email,
			IBAN:        iban,
			BillAddress: record.BillingAddress,
			ShipAddress: record.ShippingAddress,
		}
		return profile.Clone()
	}

	return NotFound()
}
