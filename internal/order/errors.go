package order

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidOrder            = errors.New("invalid order")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrConcurrentUpdate        = errors.New("order was modified concurrently")
	ErrForbidden               = errors.New("not allowed to access this order")
)

type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
