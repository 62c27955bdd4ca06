package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/order"
)

// OrderItemRequest names a product and a quantity. Name, price and image may
// be sent by storefronts that echo their cart; the server reprices from the
// catalog and ignores them.
type OrderItemRequest struct {
	ProductID uuid.UUID        `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1,lte=2147483647"`
	Name      string           `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Image     string           `json:"image,omitempty"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shippingAddress" validate:"required"`
	TotalAmount     *decimal.Decimal   `json:"totalAmount,omitempty"`
}

// UpdateOrderStatusRequest accepts "status" as an alias for "orderStatus".
type UpdateOrderStatusRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router, guard *Guard) {
	router.Route("/api/orders", func(r chi.Router) {
		r.With(guard.Require(auth.OpPlaceOrder)).Post("/", h.handleCreateOrder)
		r.With(guard.Require(auth.OpViewOrders)).Get("/", h.handleListOrders)
		r.With(guard.Require(auth.OpViewAllOrders)).Get("/admin/all", h.handleListAllOrders)
		r.With(guard.Require(auth.OpViewOrders)).Get("/{id}", h.handleGetOrder)
		r.With(guard.Require(auth.OpUpdateOrderStatus)).Put("/{id}", h.handleUpdateStatus)
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	lines := make([]order.LineRequest, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		lines = append(lines, order.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := h.service.CreateOrder(r.Context(), order.PlaceOrderInput{
		UserID:          principalFrom(r).UserID,
		Items:           lines,
		ShippingAddress: requestPayload.ShippingAddress,
		TotalAmount:     requestPayload.TotalAmount,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), principalFrom(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, chi.URLParam(r, "id"), "Order not found")
	if !ok {
		return
	}

	found, err := h.service.GetOrder(r.Context(), principalFrom(r), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, chi.URLParam(r, "id"), "Order not found")
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	update, err := requestPayload.toStatusUpdate()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), orderID, update)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (req UpdateOrderStatusRequest) toStatusUpdate() (order.StatusUpdate, error) {
	var update order.StatusUpdate

	orderStatus := req.OrderStatus
	if orderStatus == nil {
		orderStatus = req.Status
	}
	if orderStatus != nil {
		status, err := order.ParseOrderStatus(*orderStatus)
		if err != nil {
			return update, err
		}
		update.OrderStatus = &status
	}

	if req.PaymentStatus != nil {
		status, err := order.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return update, err
		}
		update.PaymentStatus = &status
	}

	return update, nil
}
