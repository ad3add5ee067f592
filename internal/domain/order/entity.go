// internal/domain/order/entity.go
package order

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAuthFailed          = errors.New("commerce platform authentication failed")
	ErrOrderNumberNotFound = errors.New("order number not found in response")
)

// Trigger identifies what started a checkout
type Trigger string

const (
	TriggerCheckout Trigger = "checkout"
	TriggerSweep    Trigger = "sweep"
)

// Step names, as recorded in Result.Failures and the step failure metric
const (
	StepAuthenticate = "authenticate"
	StepCreateOrder  = "create_order"
	StepCustomer     = "update_customer"
	StepLineItems    = "add_line_items"
	StepPayment      = "record_payment"
	StepInvoice      = "invoice"
)

// AdminSession holds the cookies of a logged-in platform admin
type AdminSession struct {
	SessionID string `json:"ofn_session_id"`
	XSRFToken string `json:"xsrf_token"`
}

// Valid reports whether both cookies are present
func (s *AdminSession) Valid() bool {
	return s != nil && s.SessionID != "" && s.XSRFToken != ""
}

// Shop identifies where orders are placed and how they are paid
type Shop struct {
	DistributorID   string
	OrderCycleID    string
	PaymentMethodID string
}

// Request is the input of one pipeline run
type Request struct {
	Shop
	SessionID string
	Trigger   Trigger
	Cart      []cart.LineItem
	Customer  *customer.Profile
}

// Failure records a soft-failed step of a partially created order
type Failure struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// Result is the outcome of a checkout. It is not modified after Run returns.
type Result struct {
	Customer    *customer.Profile `json:"customer"`
	OrderNumber string            `json:"order_id"`
	Cart        []cart.LineItem   `json:"cart"`
	Total       decimal.Decimal   `json:"total"`
	Failures    []Failure         `json:"failures,omitempty"`
}

// Partial reports whether any soft step failed
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}
