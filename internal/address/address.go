// Package address stores shipping addresses. Orders reference an address
// by id only; later edits to the address do not touch placed orders.
package address

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
)

type Address struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	Complement string    `json:"complement,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Store struct{}

func NewStore() Store {
	return Store{}
}

func (Store) Create(ctx context.Context, q db.Querier, addr *Address) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("address: failed to generate ID: %w", err)
	}
	addr.ID = id

	query := `
		INSERT INTO addresses (id, user_id, street, number, complement, city, state, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query, addr.ID, addr.UserID, addr.Street, addr.Number, addr.Complement,
		addr.City, addr.State, addr.PostalCode).Scan(&addr.CreatedAt, &addr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("address: failed to insert: %w", apperr.FromPostgres(err, "user not found"))
	}
	return nil
}

// GetAddress is ownership-scoped: an address only resolves for its owner.
func (Store) GetAddress(ctx context.Context, q db.Querier, id, userID uuid.UUID) (*Address, error) {
	query := `
		SELECT id, user_id, street, number, complement, city, state, postal_code, created_at, updated_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var addr Address
	err := q.QueryRow(ctx, query, id, userID).Scan(
		&addr.ID, &addr.UserID, &addr.Street, &addr.Number, &addr.Complement,
		&addr.City, &addr.State, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt,
	)
	if err != nil {
		appErr := apperr.FromPostgres(err, "address not found")
		return nil, fmt.Errorf("address: failed to select %s: %w", id, appErr)
	}

	return &addr, nil
}

func (Store) ListByUser(ctx context.Context, q db.Querier, userID uuid.UUID) ([]Address, error) {
	query := `
		SELECT id, user_id, street, number, complement, city, state, postal_code, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("address: failed to query for user %s: %w", userID, apperr.FromPostgres(err, "user not found"))
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var addr Address
		err := rows.Scan(&addr.ID, &addr.UserID, &addr.Street, &addr.Number, &addr.Complement,
			&addr.City, &addr.State, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("address: failed to scan for user %s: %w", userID, err)
		}
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("address: error iterating for user %s: %w", userID, err)
	}

	return addresses, nil
}

func (Store) Delete(ctx context.Context, q db.Querier, id, userID uuid.UUID) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("address: failed to delete %s: %w", id, apperr.FromPostgres(err, "address not found"))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "address not found")
	}
	return nil
}
