package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var allowedPaymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentPaid:   true,
		PaymentFailed: true,
	},
	PaymentFailed: {
		PaymentPending: true,
		PaymentPaid:    true,
	},
	PaymentPaid: {},
}

type Service interface {
	CreateOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	ListOrders(ctx context.Context, caller auth.Principal) ([]Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (*Order, error)
}

type service struct {
	orderRepo Repository
}

func NewService(orderRepo Repository) Service {
	return &service{
		orderRepo: orderRepo,
	}
}

func (s *service) CreateOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Stringer("user_id", input.UserID).Msg("service: attempt to create order with no items")
		return nil, ErrEmptyOrder
	}

	requested := make(map[uuid.UUID]int, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id in order item cannot be empty", ErrInvalidOrder)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for product %s must be at least 1", ErrInvalidOrder, item.ProductID)
		}
		if item.Quantity > MaxQuantity-requested[item.ProductID] {
			return nil, fmt.Errorf("%w: quantity for product %s must not exceed %d", ErrInvalidOrder, item.ProductID, MaxQuantity)
		}
		requested[item.ProductID] += item.Quantity
	}

	input.ShippingAddress = strings.TrimSpace(input.ShippingAddress)
	if input.ShippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidOrder)
	}

	order, err := s.orderRepo.CreateOrder(ctx, input)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInvalidOrder) {
			log.Warn().Err(err).Stringer("user_id", input.UserID).Msg("service: order rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", input.UserID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	if input.TotalAmount != nil && !input.TotalAmount.Equal(order.TotalAmount) {
		log.Warn().
			Stringer("order_id", order.ID).
			Stringer("client_total", input.TotalAmount).
			Stringer("server_total", order.TotalAmount).
			Msg("service: client total differs from computed total, using computed total")
	}

	log.Info().Stringer("order_id", order.ID).Stringer("user_id", order.UserID).Stringer("total", order.TotalAmount).Msg("service: order created successfully")

	return order, nil
}

// ListOrders returns the caller's own orders, or every order for admins.
func (s *service) ListOrders(ctx context.Context, caller auth.Principal) ([]Order, error) {
	filter := uuid.NullUUID{UUID: caller.UserID, Valid: true}
	if caller.IsAdmin() {
		filter = uuid.NullUUID{}
	}

	orders, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", caller.UserID).Msg("service: failed to fetch orders in repository")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx, uuid.NullUUID{})
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch all orders in repository")
		return nil, fmt.Errorf("service: failed to fetch all orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.UserID != caller.UserID && !caller.IsAdmin() {
		log.Warn().Stringer("order_id", id).Stringer("user_id", caller.UserID).Msg("service: access to foreign order denied")
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *service) getOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return order, nil
}

// nextStatus applies update to current, checking each supplied field against
// its transition table. Fields equal to the current value are left alone.
func nextStatus(current Status, update StatusUpdate) (Status, error) {
	next := current

	if update.OrderStatus != nil && *update.OrderStatus != current.Order {
		target := *update.OrderStatus
		if !target.Valid() {
			return current, fmt.Errorf("%w: unknown order status %q", ErrInvalidStatus, target)
		}
		if !allowedTransitions[current.Order][target] {
			return current, fmt.Errorf("%w: order status %s cannot change to %s", ErrInvalidStatusTransition, current.Order, target)
		}
		next.Order = target
	}

	if update.PaymentStatus != nil && *update.PaymentStatus != current.Payment {
		target := *update.PaymentStatus
		if !target.Valid() {
			return current, fmt.Errorf("%w: unknown payment status %q", ErrInvalidStatus, target)
		}
		if !allowedPaymentTransitions[current.Payment][target] {
			return current, fmt.Errorf("%w: payment status %s cannot change to %s", ErrInvalidStatusTransition, current.Payment, target)
		}
		next.Payment = target
	}

	return next, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (*Order, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: orderStatus or paymentStatus is required", ErrInvalidStatus)
	}

	current, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := nextStatus(current.Status(), update)
	if err != nil {
		log.Warn().
			Err(err).
			Stringer("order_id", id).
			Stringer("current_status", current.OrderStatus).
			Stringer("current_payment", current.PaymentStatus).
			Msg("service: invalid status update attempt")
		return nil, err
	}

	if next == current.Status() {
		log.Info().Stringer("order_id", id).Msg("service: order status is already the same, no update needed")
		return current, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, current.Status(), next); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrConcurrentUpdate) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: status update lost")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("old_status", current.OrderStatus).
		Stringer("new_status", next.Order).
		Stringer("old_payment", current.PaymentStatus).
		Stringer("new_payment", next.Payment).
		Msg("service: order status updated successfully")

	return s.getOrder(ctx, id)
}
