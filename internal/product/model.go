package product

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxStock is the largest value the INTEGER stock column holds.
	MaxStock = math.MaxInt32
	// PriceScale is the number of decimal places a price may carry.
	PriceScale = 2
)

// MaxPrice is the largest value NUMERIC(12,2) holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if price.GreaterThan(MaxPrice) {
		return fmt.Errorf("%w: price must not exceed %s", ErrInvalidProduct, MaxPrice)
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return fmt.Errorf("%w: price must have at most %d decimal places", ErrInvalidProduct, PriceScale)
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	if stock > MaxStock {
		return fmt.Errorf("%w: stock must not exceed %d", ErrInvalidProduct, MaxStock)
	}
	return nil
}

type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Unit        string          `json:"unit" db:"unit"`
	Description string          `json:"description" db:"description"`
	Image       string          `json:"image" db:"image"`
	SoldCount   int             `json:"soldCount" db:"sold_count"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Validate checks the fields a client may set on creation.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)

	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	if err := validatePrice(p.Price); err != nil {
		return err
	}
	return validateStock(p.Stock)
}

// Update carries a partial product change; nil fields are left untouched.
// SoldCount has no field here; checkout is its only writer.
type Update struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Unit        *string
	Description *string
	Image       *string
}

func (u *Update) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil && u.Stock == nil &&
		u.Unit == nil && u.Description == nil && u.Image == nil
}

func (u *Update) Validate() error {
	if u.IsEmpty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalidProduct)
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
		}
		u.Name = &name
	}
	if u.Category != nil {
		category := strings.TrimSpace(*u.Category)
		if category == "" {
			return fmt.Errorf("%w: category must not be empty", ErrInvalidProduct)
		}
		u.Category = &category
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.Stock != nil {
		return validateStock(*u.Stock)
	}
	return nil
}

type ListQuery struct {
	Page     int
	Limit    int
	Category string
}

// Normalize fills defaults and rejects out-of-range values.
func (q *ListQuery) Normalize() error {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1", ErrInvalidQuery)
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page > math.MaxInt32/q.Limit {
		return fmt.Errorf("%w: page is out of range", ErrInvalidQuery)
	}
	q.Category = strings.TrimSpace(q.Category)
	return nil
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Page struct {
	Products    []Product `json:"products"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	Total       int       `json:"total"`
	Limit       int       `json:"limit"`
}

func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
