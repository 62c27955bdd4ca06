package order

import (
	"fmt"
	"math"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidStatus, s)
	}
	return status, nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	_, ok := allowedPaymentTransitions[s]
	return ok
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Item is a line of a placed order. Name, Price and Image are copied from the
// product at checkout; ProductID becomes null if the product is later deleted.
type Item struct {
	ID        uuid.UUID       `json:"-"`
	ProductID uuid.NullUUID   `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"userId"`
	User            *user.PublicUser `json:"user,omitempty"`
	Items           []Item           `json:"items"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	ShippingAddress string           `json:"shippingAddress"`
	OrderStatus     OrderStatus      `json:"orderStatus"`
	PaymentStatus   PaymentStatus    `json:"paymentStatus"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Status is the pair of lifecycle fields an admin can move.
type Status struct {
	Order   OrderStatus
	Payment PaymentStatus
}

func (o *Order) Status() Status {
	return Status{Order: o.OrderStatus, Payment: o.PaymentStatus}
}

// MaxQuantity is the most units of one product a single order may request;
// quantities and stock are INTEGER columns.
const MaxQuantity = math.MaxInt32

type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput is a checkout request. TotalAmount is the client's own
// figure; it is compared against the server total but never stored.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	Items           []LineRequest
	ShippingAddress string
	TotalAmount     *decimal.Decimal
}

type StatusUpdate struct {
	OrderStatus   *OrderStatus
	PaymentStatus *PaymentStatus
}

func (u StatusUpdate) IsEmpty() bool {
	return u.OrderStatus == nil && u.PaymentStatus == nil
}
