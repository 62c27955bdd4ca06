// Package cart keeps a shopper's cart on the server. A cart holds product
// references and quantities only; prices are resolved at checkout.
package cart

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofrs/uuid"
)

var ErrInvalidItem = errors.New("invalid cart item")

// MaxQuantity matches the largest quantity an order line can carry.
const MaxQuantity = math.MaxInt32

type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type Cart struct {
	UserID    uuid.UUID `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func New(userID uuid.UUID) *Cart {
	return &Cart{UserID: userID, Items: []Item{}}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts quantity more of a product into the cart.
func (c *Cart) Add(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return fmt.Errorf("%w: product id is required", ErrInvalidItem)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	}
	if i := c.indexOf(productID); i >= 0 {
		if quantity > MaxQuantity-c.Items[i].Quantity {
			return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidItem, MaxQuantity)
		}
		c.Items[i].Quantity += quantity
		return nil
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidItem, MaxQuantity)
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	return nil
}

// SetQuantity overwrites the quantity of a product; zero removes it.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return fmt.Errorf("%w: product id is required", ErrInvalidItem)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidItem, MaxQuantity)
	}
	if quantity == 0 {
		c.Remove(productID)
		return nil
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
		return nil
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	return nil
}

func (c *Cart) Remove(productID uuid.UUID) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Normalize drops non-positive quantities and merges duplicate products,
// keeping the position where each product first appeared.
func (c *Cart) Normalize() error {
	items := c.Items
	c.Items = make([]Item, 0, len(items))

	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("%w: product id is required", ErrInvalidItem)
		}
		if item.Quantity <= 0 {
			continue
		}
		if err := c.Add(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	return nil
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
