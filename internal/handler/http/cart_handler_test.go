package http_test

import (
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/cart"
)

func TestCartHandler_GetAndSave(t *testing.T) {
	s := newTestServer(t)
	caller, token := s.principal(t, auth.RoleCustomer)

	rr := s.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	s.carts.On("GetCart", mock.Anything, caller.UserID).Return(cart.New(caller.UserID), nil).Once()
	rr = s.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[cart.Cart](t, rr).Items)

	productID := uuid.Must(uuid.NewV4())
	items := []cart.Item{{ProductID: productID, Quantity: 2}}
	s.carts.On("SaveCart", mock.Anything, caller.UserID, items).
		Return(&cart.Cart{UserID: caller.UserID, Items: items}, nil).Once()

	rr = s.do(t, http.MethodPost, "/api/cart", token, map[string]any{
		"items": []map[string]any{{"productId": productID.String(), "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, items, decodeBody[cart.Cart](t, rr).Items)

	s.carts.On("ClearCart", mock.Anything, caller.UserID).Return(nil).Once()
	rr = s.do(t, http.MethodDelete, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCartHandler_SaveRejectsNegativeQuantity(t *testing.T) {
	s := newTestServer(t)
	_, token := s.principal(t, auth.RoleCustomer)

	rr := s.do(t, http.MethodPost, "/api/cart", token, map[string]any{
		"items": []map[string]any{{"productId": uuid.Must(uuid.NewV4()).String(), "quantity": -2}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	s.carts.AssertNotCalled(t, "SaveCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartHandler_ItemRoutes(t *testing.T) {
	s := newTestServer(t)
	caller, token := s.principal(t, auth.RoleCustomer)

	bread := uuid.Must(uuid.NewV4())
	withBread := &cart.Cart{UserID: caller.UserID, Items: []cart.Item{{ProductID: bread, Quantity: 2}}}

	s.carts.On("AddItem", mock.Anything, caller.UserID, bread, 2).Return(withBread, nil).Once()
	rr := s.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": bread.String(), "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, withBread.Items, decodeBody[cart.Cart](t, rr).Items)

	s.carts.On("SetItemQuantity", mock.Anything, caller.UserID, bread, 5).
		Return(&cart.Cart{UserID: caller.UserID, Items: []cart.Item{{ProductID: bread, Quantity: 5}}}, nil).Once()
	rr = s.do(t, http.MethodPut, "/api/cart/items/"+bread.String(), token, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rr.Code)

	s.carts.On("RemoveItem", mock.Anything, caller.UserID, bread).Return(cart.New(caller.UserID), nil).Once()
	rr = s.do(t, http.MethodDelete, "/api/cart/items/"+bread.String(), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[cart.Cart](t, rr).Items)
}

func TestCartHandler_ItemRoutes_BadInput(t *testing.T) {
	s := newTestServer(t)
	_, token := s.principal(t, auth.RoleCustomer)

	rr := s.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": uuid.Must(uuid.NewV4()).String(), "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/cart/items/not-a-uuid", token, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/cart/items/"+uuid.Must(uuid.NewV4()).String(), token, map[string]any{"quantity": 3000000000})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	s.carts.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.carts.AssertNotCalled(t, "SetItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
