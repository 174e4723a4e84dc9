package order

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

type Repository interface {
	Insert(ctx context.Context, q db.Querier, o *Order) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, q db.Querier, userID uuid.UUID, page validate.Page) ([]Order, error)
	List(ctx context.Context, q db.Querier, filter ListFilter, page validate.Page) ([]Order, error)
	// UpdateStatus moves the order to newStatus only while its current
	// status is one of allowedFrom (any status when allowedFrom is
	// empty). Returns false when no row matched, which callers must
	// disambiguate into not-found or lost-race.
	UpdateStatus(ctx context.Context, q db.Querier, id uuid.UUID, newStatus Status, allowedFrom ...Status) (bool, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return postgresRepository{}
}

const orderColumns = `id, user_id, status, shipping_price, total_price, address_id, created_at, updated_at`

func (postgresRepository) Insert(ctx context.Context, q db.Querier, o *Order) error {
	query := `
		INSERT INTO orders (id, user_id, status, shipping_price, total_price, address_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err := q.Exec(ctx, query, o.ID, o.UserID, string(o.Status), o.ShippingPrice, o.TotalPrice, o.AddressID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order %s: %w", o.ID, apperr.FromPostgres(err, "order not found"))
	}
	return nil
}

func (postgresRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	err := q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.ShippingPrice, &o.TotalPrice, &o.AddressID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "order not found")
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, appErr)
	}

	return &o, nil
}

func (postgresRepository) ListByUser(ctx context.Context, q db.Querier, userID uuid.UUID, page validate.Page) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, apperr.FromPostgres(err, "user not found"))
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (postgresRepository) List(ctx context.Context, q db.Querier, filter ListFilter, page validate.Page) ([]Order, error) {
	args := make([]any, 0, 4)
	conditions := ""

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE true%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, conditions, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", apperr.FromPostgres(err, "orders not found"))
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (postgresRepository) UpdateStatus(ctx context.Context, q db.Querier, id uuid.UUID, newStatus Status, allowedFrom ...Status) (bool, error) {
	var cmdTag pgconn.CommandTag
	var err error

	if len(allowedFrom) == 0 {
		cmdTag, err = q.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(newStatus))
	} else {
		from := make([]string, len(allowedFrom))
		for i, s := range allowedFrom {
			from[i] = string(s)
		}
		cmdTag, err = q.Exec(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND status = ANY($3)`,
			id, string(newStatus), from)
	}
	if err != nil {
		return false, fmt.Errorf("repository: failed to update status for order %s: %w", id, apperr.FromPostgres(err, "order not found"))
	}

	return cmdTag.RowsAffected() > 0, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.ShippingPrice, &o.TotalPrice, &o.AddressID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	return orders, nil
}
