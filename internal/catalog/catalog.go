// Package catalog provides read access to the product table plus the one
// write the checkout path needs: the conditional stock decrement.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
)

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Accessor is stateless; every method takes the storage handle explicitly
// so the same code runs on the pool or inside a caller's transaction.
type Accessor struct{}

func NewAccessor() Accessor {
	return Accessor{}
}

func (Accessor) GetProduct(ctx context.Context, q db.Querier, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, name, price, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "product not found")
		return nil, fmt.Errorf("catalog: failed to select product %s: %w", id, appErr)
	}

	return &p, nil
}

// DecrementStock consumes quantity units of stock. The WHERE clause checks
// availability at write time, which is what serializes concurrent
// checkouts against the same product: the losing transaction sees zero
// rows affected and must roll back.
func (a Accessor) DecrementStock(ctx context.Context, q db.Querier, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`

	cmdTag, err := q.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("catalog: failed to decrement stock for product %s: %w", id, apperr.FromPostgres(err, "product not found"))
	}

	if cmdTag.RowsAffected() == 0 {
		// Distinguish a missing product from a stock shortfall.
		if _, err := a.GetProduct(ctx, q, id); err != nil {
			return err
		}
		return apperr.Newf(apperr.KindInsufficientStock, "insufficient stock for product %s", id)
	}

	return nil
}
