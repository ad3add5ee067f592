package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		raw     string
		wantErr bool
	}{
		{"open door", TypeOpenDoor, `{"code":"abc"}`, false},
		{"open door without code", TypeOpenDoor, `{}`, true},
		{"add to cart", TypeAddToCart, `{"id":1,"name":"A","price":"2.50"}`, false},
		{"add to cart zero price", TypeAddToCart, `{"id":1,"name":"A","price":0}`, false},
		{"add to cart without price", TypeAddToCart, `{"id":1,"name":"A"}`, true},
		{"add to cart negative price", TypeAddToCart, `{"id":1,"name":"A","price":-0.5}`, true},
		{"add to cart zero quantity", TypeAddToCart, `{"id":1,"name":"A","price":1,"quantity":0}`, true},
		{"add to cart bad gramm", TypeAddToCart, `{"id":1,"name":"A","price":1,"gramm":0}`, true},
		{"update quantity zero", TypeUpdateQuantity, `{"id":"A","quantity":0}`, false},
		{"update quantity negative", TypeUpdateQuantity, `{"id":"A","quantity":-1}`, true},
		{"update quantity missing", TypeUpdateQuantity, `{"id":"A"}`, true},
		{"remove item without id", TypeRemoveItem, `{}`, true},
		{"confirmation", TypeGetConfirmation, `{"confirmation":"thank_you"}`, false},
		{"checkout", TypeCheckout, `{"session_id":"x"}`, false},
		{"unknown", "dance", `{}`, true},
		{"wrong field type", TypeUpdateQuantity, `{"id":"A","quantity":"many"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand(tt.typ, []byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cmd)
		})
	}
}

func TestDecodeCommand_NumericIDs(t *testing.T) {
	cmd, err := DecodeCommand(TypeAddToCart, []byte(`{"id":42,"name":"A","price":1.5,"category_id":7}`))
	require.NoError(t, err)

	add := cmd.(*AddToCart)
	assert.Equal(t, "42", add.ID.String())
	assert.Equal(t, "7", add.CategoryID.String())
	assert.Equal(t, "1.5", add.Price.String())
	assert.Nil(t, add.Quantity)
}

func TestCommandStatefulness(t *testing.T) {
	stateful := map[string]bool{
		TypeCheckCustomerCode: true,
		TypeGetCart:           true,
		TypeAddToCart:         true,
		TypeUpdateQuantity:    true,
		TypeRemoveItem:        true,
		TypeDeleteCart:        true,
		TypeCheckout:          true,
	}
	for typ, factory := range commands {
		assert.Equal(t, stateful[typ], factory().stateful(), typ)
	}
	assert.True(t, Known(TypeWeightStop))
	assert.False(t, Known("dance"))
}
