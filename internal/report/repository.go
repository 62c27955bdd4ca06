package report

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Totals(ctx context.Context) (*Totals, error)
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Totals(ctx context.Context) (*Totals, error) {
	query := `
		SELECT
			(SELECT count(*) FROM orders) AS orders,
			(SELECT COALESCE(sum(total_amount), 0) FROM orders WHERE order_status <> 'Cancelled') AS revenue,
			(SELECT count(*) FROM users WHERE role = 'customer') AS customers,
			(SELECT count(*) FROM products) AS products
	`
	var totals Totals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("repository: failed to select report totals: %w", err)
	}
	return &totals, nil
}

func (r *repository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	query := `
		SELECT order_status AS status, count(*) AS count
		FROM orders
		GROUP BY order_status
		ORDER BY order_status
	`
	counts := make([]StatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("repository: failed to count orders by status: %w", err)
	}
	return counts, nil
}

func (r *repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	query := `
		SELECT id, name, category, price, sold_count, price * sold_count AS revenue
		FROM products
		WHERE sold_count > 0
		ORDER BY sold_count DESC, name
		LIMIT $1
	`
	products := make([]TopProduct, 0, limit)
	if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("repository: failed to select top products: %w", err)
	}
	return products, nil
}

func (r *repository) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	query := `
		SELECT id, name, category, stock
		FROM products
		WHERE stock <= $1
		ORDER BY stock, name
	`
	products := make([]LowStockProduct, 0)
	if err := r.db.SelectContext(ctx, &products, query, threshold); err != nil {
		return nil, fmt.Errorf("repository: failed to select low stock products: %w", err)
	}
	return products, nil
}
