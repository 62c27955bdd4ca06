package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository interface {
	Create(ctx context.Context, product *Product) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, query ListQuery) ([]Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id uuid.UUID, update Update) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, category, price, stock, unit, description, image, sold_count, created_at, updated_at`

func (r *repository) Create(ctx context.Context, product *Product) (uuid.UUID, error) {
	if product.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate product id: %w", err)
		}
		product.ID = id
	}

	query := `
		INSERT INTO products (id, name, category, price, stock, unit, description, image, sold_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING sold_count, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		product.Price,
		product.Stock,
		product.Unit,
		product.Description,
		product.Image,
	).Scan(&product.SoldCount, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidProduct, err)
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return product.ID, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	return product, nil
}

// List returns one page of products, newest first, and the total number of
// products matching the category filter.
func (r *repository) List(ctx context.Context, q ListQuery) ([]Product, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM products WHERE ($1 = '' OR category = $1)`
	if err := r.db.QueryRow(ctx, countQuery, q.Category).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count products: %w", err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, q.Category, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, q.Limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating products: %w", err)
	}

	return products, total, nil
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to collect categories: %w", err)
	}

	return categories, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, u Update) (*Product, error) {
	query := `
		UPDATE products SET
			name        = COALESCE($2, name),
			category    = COALESCE($3, category),
			price       = COALESCE($4, price),
			stock       = COALESCE($5, stock),
			unit        = COALESCE($6, unit),
			description = COALESCE($7, description),
			image       = COALESCE($8, image),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, query,
		id,
		u.Name,
		u.Category,
		u.Price,
		u.Stock,
		u.Unit,
		u.Description,
		u.Image,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, err)
		}
		return nil, fmt.Errorf("repository: failed to update product %s: %w", id, err)
	}

	return product, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}

func scanProduct(row pgx.Row) (*Product, error) {
	var product Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.Unit,
		&product.Description,
		&product.Image,
		&product.SoldCount,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
