package order

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

type Repository interface {
	CreateOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, userID uuid.NullUUID) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next Status) error
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

type productSnapshot struct {
	name  string
	price decimal.Decimal
	image string
}

// CreateOrder decrements stock for every requested product, snapshots the
// products into line items and inserts the order, all in one transaction.
// Any failure leaves stock untouched.
func (r *postgresRepository) CreateOrder(ctx context.Context, input PlaceOrderInput) (order *Order, err error) {
	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate order id: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id", orderID).Msg("Panic recovered during CreateOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("Transaction for CreateOrder failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
			order = nil
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	owner, err := selectPublicUser(ctx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	// Products are locked in id order so two checkouts sharing products
	// always acquire row locks in the same sequence.
	requested := make(map[uuid.UUID]int, len(input.Items))
	for _, line := range input.Items {
		requested[line.ProductID] += line.Quantity
	}
	productIDs := make([]uuid.UUID, 0, len(requested))
	for id := range requested {
		productIDs = append(productIDs, id)
	}
	slices.SortFunc(productIDs, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })

	snapshots := make(map[uuid.UUID]productSnapshot, len(productIDs))
	decrementQuery := `
		UPDATE products
		SET stock = stock - $2, sold_count = sold_count + $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING name, price, image
	`
	for _, productID := range productIDs {
		quantity := requested[productID]

		var snap productSnapshot
		err = tx.QueryRow(ctx, decrementQuery, productID, quantity).Scan(&snap.name, &snap.price, &snap.image)
		if errors.Is(err, pgx.ErrNoRows) {
			err = stockFailure(ctx, tx, productID, quantity)
			return nil, err
		}
		if isOutOfRange(err) {
			err = fmt.Errorf("%w: quantity for product %s is out of range", ErrInvalidOrder, productID)
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("repository: failed to decrement stock for product %s: %w", productID, err)
		}
		snapshots[productID] = snap
	}

	order = &Order{
		ID:              orderID,
		UserID:          input.UserID,
		User:            owner,
		Items:           make([]Item, 0, len(input.Items)),
		TotalAmount:     decimal.Zero,
		ShippingAddress: input.ShippingAddress,
		OrderStatus:     StatusPending,
		PaymentStatus:   PaymentPending,
	}
	for _, line := range input.Items {
		snap := snapshots[line.ProductID]
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item id: %w", genErr)
			return nil, err
		}
		item := Item{
			ID:        itemID,
			ProductID: uuid.NullUUID{UUID: line.ProductID, Valid: true},
			Name:      snap.name,
			Price:     snap.price,
			Image:     snap.image,
			Quantity:  line.Quantity,
		}
		order.Items = append(order.Items, item)
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
	}

	queryOrder := `
		INSERT INTO orders (id, user_id, total_amount, shipping_address, order_status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, queryOrder,
		order.ID,
		order.UserID,
		order.TotalAmount,
		order.ShippingAddress,
		string(order.OrderStatus),
		string(order.PaymentStatus),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if isOutOfRange(err) {
		err = fmt.Errorf("%w: order total %s is out of range", ErrInvalidOrder, order.TotalAmount)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, position, name, price, image, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range order.Items {
		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			order.ID,
			item.ProductID,
			i,
			item.Name,
			item.Price,
			item.Image,
			item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert order item for order %s: %w", order.ID, err)
		}
	}

	return order, nil
}

// isOutOfRange reports a value the INTEGER or NUMERIC(12,2) columns cannot hold,
// such as a sold_count or order total pushed past its limit.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange
}

// stockFailure explains why a conditional decrement matched no row.
func stockFailure(ctx context.Context, tx pgx.Tx, productID uuid.UUID, requested int) error {
	var (
		name      string
		available int
	)
	err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1`, productID).Scan(&name, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return fmt.Errorf("repository: failed to read stock for product %s: %w", productID, err)
	}
	return &InsufficientStockError{
		ProductID: productID,
		Name:      name,
		Available: available,
		Requested: requested,
	}
}

func selectPublicUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*user.PublicUser, error) {
	var owner user.PublicUser
	err := tx.QueryRow(ctx, `SELECT id, name, email, role, created_at FROM users WHERE id = $1`, userID).
		Scan(&owner.ID, &owner.Name, &owner.Email, &owner.Role, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order owner %s: %w", userID, err)
	}
	return &owner, nil
}

const orderColumns = `
	o.id, o.user_id, o.total_amount, o.shipping_address, o.order_status, o.payment_status,
	o.created_at, o.updated_at, u.id, u.name, u.email, u.role, u.created_at
`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order Order
		owner user.PublicUser
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.ShippingAddress,
		&order.OrderStatus,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
		&owner.Role,
		&owner.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.User = &owner
	order.Items = make([]Item, 0)
	return &order, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`

	order, err := scanOrder(r.db.QueryRow(ctx, queryOrder, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	if err := r.attachItems(ctx, map[uuid.UUID]*Order{order.ID: order}, []uuid.UUID{order.ID}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders returns orders newest first; an invalid userID lists every order.
func (r *postgresRepository) ListOrders(ctx context.Context, userID uuid.NullUUID) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE ($1::uuid IS NULL OR o.user_id = $1)
		ORDER BY o.created_at DESC, o.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ordersMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	if err := r.attachItems(ctx, ordersMap, orderIDs); err != nil {
		return nil, err
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}

	return result, nil
}

func (r *postgresRepository) attachItems(ctx context.Context, orders map[uuid.UUID]*Order, orderIDs []uuid.UUID) error {
	query := `
		SELECT id, order_id, product_id, name, price, image, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    Item
			orderID uuid.UUID
		)
		err := rows.Scan(
			&item.ID,
			&orderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Image,
			&item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if order, ok := orders[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return nil
}

// UpdateStatus writes next only if the order still carries expected, so two
// admins racing on the same order cannot skip a transition check.
func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, expected, next Status) error {
	query := `
		UPDATE orders
		SET order_status = $4, payment_status = $5, updated_at = now()
		WHERE id = $1 AND order_status = $2 AND payment_status = $3
	`

	cmdTag, err := r.db.Exec(ctx, query,
		orderID,
		string(expected.Order),
		string(expected.Payment),
		string(next.Order),
		string(next.Payment),
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check order %s: %w", orderID, err)
		}
		if !exists {
			log.Warn().Stringer("order_id", orderID).Msg("repository: order not found for status update")
			return ErrOrderNotFound
		}
		return ErrConcurrentUpdate
	}

	return nil
}
