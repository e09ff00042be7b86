package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAddToCart(t *testing.T) {
	payload := []byte(`{"type":"add_to_cart","item":{"name":"Margherita","price":300,"quantity":2,"size":"M","addons":["olives"]}}`)

	cmd, err := DecodeCommand(payload)
	require.NoError(t, err)

	add, ok := cmd.(AddToCartCommand)
	require.True(t, ok)
	assert.Equal(t, "Margherita", add.Item.Name)
	assert.Equal(t, 2, add.Item.Quantity)
	assert.Equal(t, 300.0, add.Item.Price)
	assert.Equal(t, "M", add.Item.Size)
	assert.Equal(t, []string{"olives"}, add.Item.Addons)
}

func TestDecodeAddToCartRequiresName(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"add_to_cart","item":{"price":300}}`))
	assert.Error(t, err)
}

func TestDecodeRemoveFromCart(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"remove_from_cart","itemName":"Margherita"}`))
	require.NoError(t, err)

	rm, ok := cmd.(RemoveFromCartCommand)
	require.True(t, ok)
	assert.Equal(t, "Margherita", rm.ItemName)
}

func TestDecodeRemoveFromCartRequiresItemName(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"remove_from_cart"}`))
	assert.Error(t, err)
}

func TestDecodeShowItemRequiresImagePath(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"show_item","itemName":"Margherita"}`))
	assert.Error(t, err)

	cmd, err := DecodeCommand([]byte(`{"type":"show_item","imagePath":"/images/margherita.png","itemName":"Margherita"}`))
	require.NoError(t, err)
	show, ok := cmd.(ShowItemCommand)
	require.True(t, ok)
	assert.Equal(t, "/images/margherita.png", show.ImagePath)
}

func TestDecodeUpdateCart(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"update_cart","items":[{"name":"Coke","price":60,"quantity":3}]}`))
	require.NoError(t, err)

	upd, ok := cmd.(UpdateCartCommand)
	require.True(t, ok)
	assert.Len(t, upd.Items, 1)
	assert.Equal(t, 3, upd.Items[0].Quantity)
}

func TestDecodeBareCommands(t *testing.T) {
	cases := map[string]Command{
		`{"type":"clear_cart"}`:          ClearCartCommand{},
		`{"type":"open_cart"}`:           OpenCartCommand{},
		`{"type":"navigate_to_payment"}`: NavigateToPaymentCommand{},
		`{"type":"navigate_to_menu"}`:    NavigateToMenuCommand{},
		`{"type":"cancel_payment"}`:      CancelPaymentCommand{},
	}

	for payload, want := range cases {
		cmd, err := DecodeCommand([]byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, want, cmd, payload)
	}
}

func TestDecodeCancelOrderCarriesOptionalID(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"cancel_order","orderId":"ORD-1700000000000-42"}`))
	require.NoError(t, err)

	cancel, ok := cmd.(CancelOrderCommand)
	require.True(t, ok)
	assert.Equal(t, "ORD-1700000000000-42", cancel.OrderID)

	cmd, err = DecodeCommand([]byte(`{"type":"cancel_order"}`))
	require.NoError(t, err)
	cancel, ok = cmd.(CancelOrderCommand)
	require.True(t, ok)
	assert.Empty(t, cancel.OrderID)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := DecodeCommand([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"launch_rocket"}`))
	require.Error(t, err)

	var unknown *ErrUnknownCommand
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "launch_rocket", unknown.Type)
}

func TestDecodeMissingType(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"itemName":"Margherita"}`))
	assert.Error(t, err)
}
