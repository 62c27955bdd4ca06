package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUnknownUser = errors.New("cart owner does not exist")

type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &repository{db: db}
}

// Get returns the saved cart, or an empty one if the user never saved a cart.
func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	var (
		raw  []byte
		cart = New(userID)
	)
	err := r.db.QueryRow(ctx, `SELECT items, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&raw, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, fmt.Errorf("repository: failed to select cart for user %s: %w", userID, err)
	}

	if err := json.Unmarshal(raw, &cart.Items); err != nil {
		return nil, fmt.Errorf("repository: failed to decode cart for user %s: %w", userID, err)
	}
	if cart.Items == nil {
		cart.Items = []Item{}
	}

	return cart, nil
}

// Save replaces the stored cart wholesale.
func (r *repository) Save(ctx context.Context, cart *Cart) error {
	raw, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("repository: failed to encode cart: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = now()
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query, cart.UserID, raw).Scan(&cart.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrUnknownUser
		}
		return fmt.Errorf("repository: failed to save cart for user %s: %w", cart.UserID, err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: failed to delete cart for user %s: %w", userID, err)
	}
	return nil
}
