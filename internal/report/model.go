package report

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

type Totals struct {
	Orders    int             `db:"orders" json:"orders"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"`
	Customers int             `db:"customers" json:"customers"`
	Products  int             `db:"products" json:"products"`
}

type TopProduct struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Price     decimal.Decimal `db:"price" json:"price"`
	SoldCount int             `db:"sold_count" json:"soldCount"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"`
}

type LowStockProduct struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Category string    `db:"category" json:"category"`
	Stock    int       `db:"stock" json:"stock"`
}

type Summary struct {
	Totals            Totals            `json:"totals"`
	OrdersByStatus    map[string]int    `json:"ordersByStatus"`
	TopProducts       []TopProduct      `json:"topProducts"`
	LowStock          []LowStockProduct `json:"lowStock"`
	LowStockThreshold int               `json:"lowStockThreshold"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}
