package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository implements Repository using PostgreSQL. Each save
// rewrites the owner's rows inside a transaction, which keeps the stored
// cart identical to the in-memory one (last writer wins, as in the UI).
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the owner's cart in insertion order.
func (r *PostgresRepository) Get(ctx context.Context, ownerID uuid.UUID) (Cart, error) {
	const query = `
		SELECT kit_id, quantity
		FROM cart_items
		WHERE owner_id = $1
		ORDER BY position
	`

	var rows []cartItemRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return Cart{}, fmt.Errorf("select cart items: %w", err)
	}

	cart := Cart{OwnerID: ownerID, Items: make([]Item, 0, len(rows))}
	for _, row := range rows {
		cart.Items = append(cart.Items, Item{KitID: row.KitID, Quantity: row.Quantity})
	}
	return cart, nil
}

// Save replaces the owner's cart rows.
func (r *PostgresRepository) Save(ctx context.Context, cart Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cart save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE owner_id = $1`, cart.OwnerID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	const insert = `
		INSERT INTO cart_items (owner_id, kit_id, quantity, position)
		VALUES ($1, $2, $3, $4)
	`
	for i, item := range cart.Items {
		if _, err := tx.ExecContext(ctx, insert, cart.OwnerID, item.KitID, item.Quantity, i); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cart save: %w", err)
	}
	return nil
}

type cartItemRow struct {
	KitID    uuid.UUID `db:"kit_id"`
	Quantity int       `db:"quantity"`
}
