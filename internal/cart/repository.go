package cart

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
)

type Repository interface {
	Get(ctx context.Context, q db.Querier, userID, productID uuid.UUID) (*Item, error)
	Upsert(ctx context.Context, q db.Querier, item *Item) error
	Delete(ctx context.Context, q db.Querier, userID, productID uuid.UUID) error
	Clear(ctx context.Context, q db.Querier, userID uuid.UUID) (int64, error)
	List(ctx context.Context, q db.Querier, userID uuid.UUID) ([]Item, error)
	ListLines(ctx context.Context, q db.Querier, userID uuid.UUID) ([]Line, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return postgresRepository{}
}

func (postgresRepository) Get(ctx context.Context, q db.Querier, userID, productID uuid.UUID) (*Item, error) {
	query := `
		SELECT user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	var item Item
	err := q.QueryRow(ctx, query, userID, productID).Scan(
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "cart item not found")
		return nil, fmt.Errorf("cart: failed to select item for user %s: %w", userID, appErr)
	}

	return &item, nil
}

func (postgresRepository) Upsert(ctx context.Context, q db.Querier, item *Item) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
	`

	_, err := q.Exec(ctx, query, item.UserID, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("cart: failed to upsert item for user %s: %w", item.UserID, apperr.FromPostgres(err, "cart item not found"))
	}
	return nil
}

func (postgresRepository) Delete(ctx context.Context, q db.Querier, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	// Zero rows affected is fine: removal is idempotent.
	_, err := q.Exec(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("cart: failed to delete item for user %s: %w", userID, apperr.FromPostgres(err, "cart item not found"))
	}
	return nil
}

func (postgresRepository) Clear(ctx context.Context, q db.Querier, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	cmdTag, err := q.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("cart: failed to clear cart for user %s: %w", userID, apperr.FromPostgres(err, "cart not found"))
	}
	return cmdTag.RowsAffected(), nil
}

func (postgresRepository) List(ctx context.Context, q db.Querier, userID uuid.UUID) ([]Item, error) {
	query := `
		SELECT user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: failed to query items for user %s: %w", userID, apperr.FromPostgres(err, "cart not found"))
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("cart: failed to scan item for user %s: %w", userID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart: error iterating items for user %s: %w", userID, err)
	}

	return items, nil
}

func (postgresRepository) ListLines(ctx context.Context, q db.Querier, userID uuid.UUID) ([]Line, error) {
	query := `
		SELECT c.product_id, p.name, p.price, p.stock, p.image_url, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: failed to query lines for user %s: %w", userID, apperr.FromPostgres(err, "cart not found"))
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var line Line
		err := rows.Scan(&line.ProductID, &line.Name, &line.Price, &line.Stock, &line.ImageURL, &line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("cart: failed to scan line for user %s: %w", userID, err)
		}
		line.LineTotal = line.Price.Mul(decimalFromInt(line.Quantity))
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart: error iterating lines for user %s: %w", userID, err)
	}

	return lines, nil
}
