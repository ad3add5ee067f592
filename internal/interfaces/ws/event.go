// internal/interfaces/ws/event.go
package ws

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/domain/door"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
)

// Outbound event types
const (
	EventSessionID           = "session_id"
	EventOpenDoor            = "open_door"
	EventCustomerCode        = "customer_code"
	EventCustomerCodeChecked = "customer_code_checked"
	EventCart                = "cart"
	EventLoadProducts        = "load_products"
	EventSearchProductCode   = "search_product_code"
	EventSearchProductName   = "search_product_name"
	EventCartDeleted         = "cart_deleted"
	EventWeight              = "weight"
	EventInitCheckout        = "init_checkout"
	EventConfirmation        = "confirmation"
)

type SessionIDEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type OpenDoorEvent struct {
	Type   string      `json:"type"`
	Status door.Status `json:"status"`
}

type CustomerCodeEvent struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type CustomerCodeCheckedEvent struct {
	Type string `json:"type"`
	customer.Profile
}

type CartEvent struct {
	Type string          `json:"type"`
	Cart []cart.LineItem `json:"cart"`
}

type LoadProductsEvent struct {
	Type string `json:"type"`
	*catalog.Catalog
}

type SearchProductCodeEvent struct {
	Type         string          `json:"type"`
	Exist        bool            `json:"exist"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Img          string          `json:"img"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
}

type SearchProductNameEvent struct {
	Type    string           `json:"type"`
	Exist   bool             `json:"exist"`
	Product *catalog.Product `json:"product,omitempty"`
	Name    string           `json:"name"`
}

type CartDeletedEvent struct {
	Type string `json:"type"`
}

type WeightEvent struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

type InitCheckoutEvent struct {
	Type  string        `json:"type"`
	Order *order.Result `json:"order,omitempty"`
	Error string        `json:"error,omitempty"`
}

type ConfirmationEvent struct {
	Type         string `json:"type"`
	Confirmation string `json:"confirmation"`
	Value        string `json:"value"`
}
