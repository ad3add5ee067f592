// internal/interfaces/ws/command.go
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/your-org/nanostore-kiosk/internal/pkg/jsonid"
)

var ErrUnknownCommand = errors.New("unknown command type")

// Command types
const (
	TypeOpenDoor          = "open_door"
	TypeLogin             = "login"
	TypeCheckCustomerCode = "check_customer_code"
	TypeGetCart           = "get_cart"
	TypeLoadProducts      = "load_products"
	TypeCheckProductCode  = "check_product_code"
	TypeAddToCart         = "add_to_cart"
	TypeUpdateQuantity    = "update_quantity"
	TypeRemoveItem        = "remove_item"
	TypeDeleteCart        = "delete_cart"
	TypeWeight            = "weight"
	TypeWeightStop        = "weight_stop"
	TypeCheckout          = "checkout"
	TypeGetConfirmation   = "get_confirmation"
)

// Envelope holds the fields common to every inbound message
type Envelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Command is one decoded inbound message
type Command interface {
	// stateful commands run under the session lock and count as activity
	stateful() bool
}

type OpenDoor struct {
	Code string `json:"code" validate:"required"`
}

type Login struct{}

type CheckCustomerCode struct {
	Code jsonid.ID `json:"code" validate:"required"`
}

type GetCart struct{}

type LoadProducts struct{}

type CheckProductCode struct {
	Code jsonid.ID `json:"code" validate:"required"`
}

type AddToCart struct {
	ID           jsonid.ID        `json:"id" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	Price        *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity     *int             `json:"quantity" validate:"omitempty,gte=1"`
	Img          string           `json:"img"`
	CategoryID   jsonid.ID        `json:"category_id"`
	CategoryName string           `json:"category_name"`
	Gramm        *decimal.Decimal `json:"gramm" validate:"omitempty,gt=0"`
}

type UpdateQuantity struct {
	ID       jsonid.ID `json:"id" validate:"required"`
	Quantity *int      `json:"quantity" validate:"required,gte=0"`
}

type RemoveItem struct {
	ID jsonid.ID `json:"id" validate:"required"`
}

type DeleteCart struct{}

type Weight struct{}

type WeightStop struct{}

type Checkout struct{}

type GetConfirmation struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

func (OpenDoor) stateful() bool          { return false }
func (Login) stateful() bool             { return false }
func (CheckCustomerCode) stateful() bool { return true }
func (GetCart) stateful() bool           { return true }
func (LoadProducts) stateful() bool      { return false }
func (CheckProductCode) stateful() bool  { return false }
func (AddToCart) stateful() bool         { return true }
func (UpdateQuantity) stateful() bool    { return true }
func (RemoveItem) stateful() bool        { return true }
func (DeleteCart) stateful() bool        { return true }
func (Weight) stateful() bool            { return false }
func (WeightStop) stateful() bool        { return false }
func (Checkout) stateful() bool          { return true }
func (GetConfirmation) stateful() bool   { return false }

var commands = map[string]func() Command{
	TypeOpenDoor:          func() Command { return &OpenDoor{} },
	TypeLogin:             func() Command { return &Login{} },
	TypeCheckCustomerCode: func() Command { return &CheckCustomerCode{} },
	TypeGetCart:           func() Command { return &GetCart{} },
	TypeLoadProducts:      func() Command { return &LoadProducts{} },
	TypeCheckProductCode:  func() Command { return &CheckProductCode{} },
	TypeAddToCart:         func() Command { return &AddToCart{} },
	TypeUpdateQuantity:    func() Command { return &UpdateQuantity{} },
	TypeRemoveItem:        func() Command { return &RemoveItem{} },
	TypeDeleteCart:        func() Command { return &DeleteCart{} },
	TypeWeight:            func() Command { return &Weight{} },
	TypeWeightStop:        func() Command { return &WeightStop{} },
	TypeCheckout:          func() Command { return &Checkout{} },
	TypeGetConfirmation:   func() Command { return &GetConfirmation{} },
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Known reports whether typ names a command
func Known(typ string) bool {
	_, ok := commands[typ]
	return ok
}

// DecodeCommand decodes and validates the payload of a message of type typ
func DecodeCommand(typ string, raw []byte) (Command, error) {
	factory, ok := commands[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, typ)
	}

	cmd := factory()
	if err := json.Unmarshal(raw, cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", typ, err)
	}
	return cmd, nil
}
