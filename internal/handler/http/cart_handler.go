package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/cart"
)

type CartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0,lte=2147483647"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,lte=2147483647"`
}

type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=2147483647"`
}

type SaveCartRequest struct {
	Items []CartItemRequest `json:"items" validate:"dive"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router, guard *Guard) {
	router.Route("/api/cart", func(r chi.Router) {
		r.Use(guard.Require(auth.OpManageCart))
		r.Get("/", h.handleGetCart)
		r.Post("/", h.handleSaveCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Put("/items/{productId}", h.handleSetItemQuantity)
		r.Delete("/items/{productId}", h.handleRemoveItem)
	})
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetCart(r.Context(), principalFrom(r).UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get cart")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *CartHandler) handleSaveCart(w http.ResponseWriter, r *http.Request) {
	var requestPayload SaveCartRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	items := make([]cart.Item, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		items = append(items, cart.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	saved, err := h.service.SaveCart(r.Context(), principalFrom(r).UserID, items)
	if err != nil {
		respondWithServiceError(w, err, "Failed to save cart")
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), principalFrom(r).UserID); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, cart.New(principalFrom(r).UserID))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var requestPayload AddCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.AddItem(r.Context(), principalFrom(r).UserID, requestPayload.ProductID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CartHandler) handleSetItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := cartProductID(w, r)
	if !ok {
		return
	}

	var requestPayload SetCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.SetItemQuantity(r.Context(), principalFrom(r).UserID, productID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := cartProductID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.RemoveItem(r.Context(), principalFrom(r).UserID, productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func cartProductID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil || productID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return uuid.Nil, false
	}
	return productID, true
}
