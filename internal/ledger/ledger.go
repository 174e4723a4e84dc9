// Package ledger owns order_items rows: creation during checkout, reads
// and corrections afterwards, and the aggregate reports built on top of
// them. It is reusable outside checkout; nothing here opens a transaction,
// callers pass the pool or their own tx.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

type Ledger struct{}

func New() Ledger {
	return Ledger{}
}

// CreateItems bulk-inserts the lines of a freshly created order. Every
// item is validated (positive quantity, positive price, product exists)
// before the first insert; atomicity comes from the caller's transaction.
func (Ledger) CreateItems(ctx context.Context, q db.Querier, orderID uuid.UUID, items []NewItem) ([]OrderItem, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order must contain at least one item")
	}

	for i := range items {
		item := &items[i]
		if item.ProductID == uuid.Nil {
			return nil, apperr.New(apperr.KindValidation, "product_id must not be empty")
		}
		if err := validate.Quantity("quantity", item.Quantity); err != nil {
			return nil, err
		}
		if err := validate.PositivePrice("price", item.Price); err != nil {
			return nil, err
		}

		var exists bool
		err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to check product %s: %w", item.ProductID, apperr.FromPostgres(err, "product not found"))
		}
		if !exists {
			return nil, apperr.Newf(apperr.KindNotFound, "product %s not found", item.ProductID)
		}
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	created := make([]OrderItem, 0, len(items))
	for _, item := range items {
		itemID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to generate item ID: %w", err)
		}

		row := OrderItem{
			ID:        itemID,
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			CreatedAt: time.Now().UTC(),
		}

		_, err = q.Exec(ctx, query, row.ID, row.OrderID, row.ProductID, row.Quantity, row.Price, row.Subtotal, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to insert item for order %s: %w", orderID, apperr.FromPostgres(err, "order not found"))
		}
		created = append(created, row)
	}

	return created, nil
}

// GetItems returns the order's lines joined with product display fields,
// oldest first.
func (Ledger) GetItems(ctx context.Context, q db.Querier, orderID string) ([]ItemView, error) {
	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price, i.subtotal, i.created_at,
		       p.name, p.image_url
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.created_at ASC
	`

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to query items for order %s: %w", id, apperr.FromPostgres(err, "order not found"))
	}
	defer rows.Close()

	views := make([]ItemView, 0)
	for rows.Next() {
		var v ItemView
		err := rows.Scan(&v.ID, &v.OrderID, &v.ProductID, &v.Quantity, &v.Price, &v.Subtotal, &v.CreatedAt,
			&v.ProductName, &v.ProductImage)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to scan item for order %s: %w", id, err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: error iterating items for order %s: %w", id, err)
	}

	return views, nil
}

func (Ledger) GetItemByID(ctx context.Context, q db.Querier, itemID string) (*OrderItem, error) {
	id, err := validate.UUID("item_id", itemID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, order_id, product_id, quantity, price, subtotal, created_at
		FROM order_items
		WHERE id = $1
	`

	var item OrderItem
	err = q.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Subtotal, &item.CreatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "order item not found")
		return nil, fmt.Errorf("ledger: failed to select item %s: %w", id, appErr)
	}

	return &item, nil
}

// UpdateQuantity corrects a line's quantity. The subtotal is recomputed
// from the stored price, never from the live catalog price, preserving
// the price-at-purchase snapshot.
func (Ledger) UpdateQuantity(ctx context.Context, q db.Querier, itemID string, quantity int) (*OrderItem, error) {
	id, err := validate.UUID("item_id", itemID)
	if err != nil {
		return nil, err
	}
	if err := validate.Quantity("quantity", quantity); err != nil {
		return nil, err
	}

	query := `
		UPDATE order_items
		SET quantity = $2, subtotal = price * $2
		WHERE id = $1
		RETURNING id, order_id, product_id, quantity, price, subtotal, created_at
	`

	var item OrderItem
	err = q.QueryRow(ctx, query, id, quantity).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Subtotal, &item.CreatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "order item not found")
		return nil, fmt.Errorf("ledger: failed to update quantity for item %s: %w", id, appErr)
	}

	log.Info().Stringer("item_id", item.ID).Int("quantity", quantity).Msg("Order item quantity corrected")
	return &item, nil
}

// DeleteItem removes one line, returning how many rows went away.
// Deleting an absent item is not an error.
func (Ledger) DeleteItem(ctx context.Context, q db.Querier, itemID string) (int64, error) {
	id, err := validate.UUID("item_id", itemID)
	if err != nil {
		return 0, err
	}

	cmdTag, err := q.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("ledger: failed to delete item %s: %w", id, apperr.FromPostgres(err, "order item not found"))
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteAllForOrder removes every line of an order, returning the count.
func (Ledger) DeleteAllForOrder(ctx context.Context, q db.Querier, orderID string) (int64, error) {
	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return 0, err
	}

	cmdTag, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("ledger: failed to delete items for order %s: %w", id, apperr.FromPostgres(err, "order not found"))
	}
	return cmdTag.RowsAffected(), nil
}

// CalculateOrderTotal aggregates the stored rows for one order. This is
// deliberately independent of orders.total_price so the two can be
// reconciled against each other.
func (Ledger) CalculateOrderTotal(ctx context.Context, q db.Querier, orderID string) (*Totals, error) {
	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(subtotal), 0)
		FROM order_items
		WHERE order_id = $1
	`

	var totals Totals
	err = q.QueryRow(ctx, query, id).Scan(&totals.ItemCount, &totals.TotalQuantity, &totals.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to aggregate totals for order %s: %w", id, apperr.FromPostgres(err, "order not found"))
	}

	return &totals, nil
}

// GetItemsByProduct pages through every line that references a product,
// newest first.
func (Ledger) GetItemsByProduct(ctx context.Context, q db.Querier, productID string, page validate.Page) ([]OrderItem, error) {
	id, err := validate.UUID("product_id", productID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, order_id, product_id, quantity, price, subtotal, created_at
		FROM order_items
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, id, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to query items for product %s: %w", id, apperr.FromPostgres(err, "product not found"))
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Subtotal, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to scan item for product %s: %w", id, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: error iterating items for product %s: %w", id, err)
	}

	return items, nil
}

// GetSalesStats groups stored lines by product, ordered by revenue
// descending. The filter is validated before any query runs.
func (Ledger) GetSalesStats(ctx context.Context, q db.Querier, filter StatsFilter) ([]ProductSales, error) {
	args := make([]any, 0, 4)
	conditions := ""

	if filter.ProductID != "" {
		id, err := validate.UUID("product_id", filter.ProductID)
		if err != nil {
			return nil, err
		}
		args = append(args, id)
		conditions += fmt.Sprintf(" AND i.product_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions += fmt.Sprintf(" AND i.created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions += fmt.Sprintf(" AND i.created_at < $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > validate.MaxPageLimit {
		limit = validate.DefaultPageLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT i.product_id, p.name, COUNT(DISTINCT i.order_id), COALESCE(SUM(i.quantity), 0), COALESCE(SUM(i.subtotal), 0) AS revenue
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE true%s
		GROUP BY i.product_id, p.name
		ORDER BY revenue DESC
		LIMIT $%d
	`, conditions, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to query sales stats: %w", apperr.FromPostgres(err, "no sales data"))
	}
	defer rows.Close()

	stats := make([]ProductSales, 0)
	for rows.Next() {
		var row ProductSales
		err := rows.Scan(&row.ProductID, &row.ProductName, &row.OrderCount, &row.TotalQuantity, &row.Revenue)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to scan sales stats row: %w", err)
		}
		stats = append(stats, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: error iterating sales stats: %w", err)
	}

	return stats, nil
}
