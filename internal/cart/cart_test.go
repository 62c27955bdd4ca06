package cart_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/cart"
)

func TestCart_AddMergesQuantities(t *testing.T) {
	apples := uuid.Must(uuid.NewV4())
	pears := uuid.Must(uuid.NewV4())

	c := cart.New(uuid.Must(uuid.NewV4()))
	require.NoError(t, c.Add(apples, 2))
	require.NoError(t, c.Add(pears, 1))
	require.NoError(t, c.Add(apples, 3))

	assert.Equal(t, []cart.Item{{ProductID: apples, Quantity: 5}, {ProductID: pears, Quantity: 1}}, c.Items)
	assert.Equal(t, 6, c.Count())

	require.ErrorIs(t, c.Add(apples, 0), cart.ErrInvalidItem)
	require.ErrorIs(t, c.Add(uuid.Nil, 1), cart.ErrInvalidItem)
}

func TestCart_SetQuantity(t *testing.T) {
	milk := uuid.Must(uuid.NewV4())
	eggs := uuid.Must(uuid.NewV4())

	c := cart.New(uuid.Must(uuid.NewV4()))
	require.NoError(t, c.SetQuantity(milk, 2))
	require.NoError(t, c.SetQuantity(eggs, 12))
	require.NoError(t, c.SetQuantity(milk, 1))
	assert.Equal(t, 13, c.Count())

	require.NoError(t, c.SetQuantity(eggs, 0))
	assert.Equal(t, []cart.Item{{ProductID: milk, Quantity: 1}}, c.Items)

	require.ErrorIs(t, c.SetQuantity(milk, -1), cart.ErrInvalidItem)

	c.Remove(milk)
	c.Remove(milk)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Count())
}

func TestCart_Normalize(t *testing.T) {
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	c := uuid.Must(uuid.NewV4())

	shopping := &cart.Cart{Items: []cart.Item{
		{ProductID: b, Quantity: 1},
		{ProductID: a, Quantity: 2},
		{ProductID: c, Quantity: 0},
		{ProductID: b, Quantity: 4},
		{ProductID: a, Quantity: -1},
	}}
	require.NoError(t, shopping.Normalize())

	assert.Equal(t, []cart.Item{{ProductID: b, Quantity: 5}, {ProductID: a, Quantity: 2}}, shopping.Items)

	broken := &cart.Cart{Items: []cart.Item{{Quantity: 1}}}
	require.ErrorIs(t, broken.Normalize(), cart.ErrInvalidItem)
}

func TestCart_QuantityCap(t *testing.T) {
	rice := uuid.Must(uuid.NewV4())

	c := cart.New(uuid.Must(uuid.NewV4()))
	require.NoError(t, c.Add(rice, cart.MaxQuantity))
	require.ErrorIs(t, c.Add(rice, 1), cart.ErrInvalidItem)
	require.ErrorIs(t, c.SetQuantity(rice, cart.MaxQuantity+1), cart.ErrInvalidItem)
	assert.Equal(t, cart.MaxQuantity, c.Count())

	merged := &cart.Cart{Items: []cart.Item{
		{ProductID: rice, Quantity: cart.MaxQuantity},
		{ProductID: rice, Quantity: 1},
	}}
	require.ErrorIs(t, merged.Normalize(), cart.ErrInvalidItem)
}
