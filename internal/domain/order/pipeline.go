// internal/domain/order/pipeline.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
)

// Platform is the admin order API of the commerce platform
type Platform interface {
	Authenticate(ctx context.Context) (*AdminSession, error)
	CreateOrder(ctx context.Context, session *AdminSession, distributorID, orderCycleID string) (string, error)
	UpdateCustomer(ctx context.Context, session *AdminSession, orderNumber string, profile *customer.Profile) error
	AddLineItem(ctx context.Context, session *AdminSession, orderNumber string, item cart.LineItem) error
	RecordPayment(ctx context.Context, session *AdminSession, orderNumber, paymentMethodID string, amount decimal.Decimal) error
}

// SessionCache keeps the admin session between checkouts
type SessionCache interface {
	Load(ctx context.Context) (*AdminSession, error)
	Store(ctx context.Context, session *AdminSession) error
	Invalidate(ctx context.Context) error
}

// Invoicer produces the invoice for a finished order
type Invoicer interface {
	Invoice(ctx context.Context, result *Result) error
}

type failurePolicy int

const (
	fatal failurePolicy = iota
	soft
	swallowed
)

type step struct {
	name   string
	policy failurePolicy
	run    func(ctx context.Context, r *run) error
}

// run carries the mutable state of one pipeline execution
type run struct {
	req     Request
	result  *Result
	session *AdminSession
	cached  bool
	log     *logrus.Entry
}

// Pipeline turns a cart snapshot into an order on the commerce platform
type Pipeline struct {
	platform Platform
	cache    SessionCache
	invoicer Invoicer
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	steps    []step
}

// NewPipeline creates a new order pipeline. cache and invoicer may be nil.
func NewPipeline(platform Platform, cache SessionCache, invoicer Invoicer, logger *logrus.Logger, m *metrics.Metrics) *Pipeline {
	p := &Pipeline{
		platform: platform,
		cache:    cache,
		invoicer: invoicer,
		logger:   logger,
		metrics:  m,
	}
	p.steps = []step{
		{name: StepAuthenticate, policy: fatal, run: p.authenticate},
		{name: StepCreateOrder, policy: fatal, run: p.createOrder},
		{name: StepCustomer, policy: soft, run: p.updateCustomer},
		{name: StepLineItems, policy: soft, run: p.addLineItems},
		{name: StepPayment, policy: soft, run: p.recordPayment},
		{name: StepInvoice, policy: swallowed, run: p.invoice},
	}
	return p
}

// Run executes the pipeline. An empty cart fails with ErrEmptyCart before any
// platform call. Authentication and order creation failures are returned as
// errors; later step failures are collected in Result.Failures.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	items := cart.Clone(req.Cart)
	if len(items) == 0 {
		p.count(req.Trigger, "empty")
		return nil, ErrEmptyCart
	}

	var profile *customer.Profile
	if req.Customer != nil {
		c := req.Customer.Clone()
		profile = &c
	}

	r := &run{
		req: req,
		result: &Result{
			Customer: profile,
			Cart:     items,
			Total:    cart.Total(items),
		},
		log: p.logger.WithFields(logrus.Fields{
			"session_id": req.SessionID,
			"trigger":    req.Trigger,
		}),
	}

	for _, s := range p.steps {
		err := s.run(ctx, r)
		if err == nil {
			continue
		}

		p.metrics.StepFailures.WithLabelValues(s.name).Inc()
		log := r.log.WithError(err).WithField("step", s.name)

		switch s.policy {
		case fatal:
			log.Error("❌ Checkout aborted")
			p.count(req.Trigger, "failed")
			return nil, fmt.Errorf("%s: %w", s.name, err)
		case soft:
			log.Warn("⚠️ Checkout step failed, order needs reconciliation")
			r.result.Failures = append(r.result.Failures, Failure{Step: s.name, Error: err.Error()})
		case swallowed:
			log.Error("Invoice generation failed")
		}
	}

	outcome := "success"
	if r.result.Partial() {
		outcome = "partial"
	}
	p.count(req.Trigger, outcome)

	r.log.WithFields(logrus.Fields{
		"order_number": r.result.OrderNumber,
		"total":        r.result.Total.StringFixed(2),
		"failures":     len(r.result.Failures),
	}).Info("✅ Order created")

	return r.result, nil
}

func (p *Pipeline) count(trigger Trigger, outcome string) {
	p.metrics.Checkouts.WithLabelValues(string(trigger), outcome).Inc()
}

func (p *Pipeline) authenticate(ctx context.Context, r *run) error {
	if p.cache != nil {
		session, err := p.cache.Load(ctx)
		if err != nil {
			r.log.WithError(err).Debug("Admin session cache unavailable")
		} else if session.Valid() {
			r.session = session
			r.cached = true
			return nil
		}
	}
	return p.login(ctx, r)
}

func (p *Pipeline) login(ctx context.Context, r *run) error {
	session, err := p.platform.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if !session.Valid() {
		return ErrAuthFailed
	}

	r.session = session
	r.cached = false

	if p.cache != nil {
		if err := p.cache.Store(ctx, session); err != nil {
			r.log.WithError(err).Warn("Failed to cache admin session")
		}
	}
	return nil
}

// createOrder retries once with a fresh login when a cached session is rejected
func (p *Pipeline) createOrder(ctx context.Context, r *run) error {
	number, err := p.platform.CreateOrder(ctx, r.session, r.req.DistributorID, r.req.OrderCycleID)
	if err != nil && r.cached {
		r.log.WithError(err).Info("Cached admin session rejected, logging in again")
		if p.cache != nil {
			if ierr := p.cache.Invalidate(ctx); ierr != nil {
				r.log.WithError(ierr).Warn("Failed to invalidate admin session")
			}
		}
		if lerr := p.login(ctx, r); lerr != nil {
			return lerr
		}
		number, err = p.platform.CreateOrder(ctx, r.session, r.req.DistributorID, r.req.OrderCycleID)
	}
	if err != nil {
		return err
	}

	r.result.OrderNumber = number
	r.log = r.log.WithField("order_number", number)
	return nil
}

func (p *Pipeline) updateCustomer(ctx context.Context, r *run) error {
	if r.result.Customer == nil || !r.result.Customer.Exist {
		r.log.Warn("No customer bound to session, order left anonymous")
		return nil
	}
	return p.platform.UpdateCustomer(ctx, r.session, r.result.OrderNumber, r.result.Customer)
}

func (p *Pipeline) addLineItems(ctx context.Context, r *run) error {
	var errs []error
	for _, item := range r.result.Cart {
		if err := p.platform.AddLineItem(ctx, r.session, r.result.OrderNumber, item); err != nil {
			errs = append(errs, fmt.Errorf("variant %s: %w", item.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) recordPayment(ctx context.Context, r *run) error {
	return p.platform.RecordPayment(ctx, r.session, r.result.OrderNumber, r.req.PaymentMethodID, r.result.Total)
}

func (p *Pipeline) invoice(ctx context.Context, r *run) error {
	if p.invoicer == nil {
		return nil
	}
	return p.invoicer.Invoice(ctx, r.result)
}
