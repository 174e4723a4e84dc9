package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/ledger"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

// countingQuerier fails every call; the tests below only care that no
// call happens at all.
type countingQuerier struct {
	calls int
}

func (c *countingQuerier) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	c.calls++
	return pgconn.CommandTag{}, errors.New("unexpected storage access")
}

func (c *countingQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	c.calls++
	return nil, errors.New("unexpected storage access")
}

func (c *countingQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	c.calls++
	return failRow{}
}

type failRow struct{}

func (failRow) Scan(_ ...any) error {
	return errors.New("unexpected storage access")
}

const badID = "not-a-uuid"

func TestLedger_MalformedIDFailsBeforeStorage(t *testing.T) {
	led := ledger.New()
	ctx := context.Background()

	tests := []struct {
		name string
		call func(q *countingQuerier) error
	}{
		{name: "GetItems", call: func(q *countingQuerier) error {
			_, err := led.GetItems(ctx, q, badID)
			return err
		}},
		{name: "GetItemByID", call: func(q *countingQuerier) error {
			_, err := led.GetItemByID(ctx, q, badID)
			return err
		}},
		{name: "UpdateQuantity", call: func(q *countingQuerier) error {
			_, err := led.UpdateQuantity(ctx, q, badID, 2)
			return err
		}},
		{name: "DeleteItem", call: func(q *countingQuerier) error {
			_, err := led.DeleteItem(ctx, q, badID)
			return err
		}},
		{name: "DeleteAllForOrder", call: func(q *countingQuerier) error {
			_, err := led.DeleteAllForOrder(ctx, q, badID)
			return err
		}},
		{name: "CalculateOrderTotal", call: func(q *countingQuerier) error {
			_, err := led.CalculateOrderTotal(ctx, q, badID)
			return err
		}},
		{name: "GetItemsByProduct", call: func(q *countingQuerier) error {
			_, err := led.GetItemsByProduct(ctx, q, badID, validate.Page{Limit: 10})
			return err
		}},
		{name: "GetSalesStats", call: func(q *countingQuerier) error {
			_, err := led.GetSalesStats(ctx, q, ledger.StatsFilter{ProductID: badID})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &countingQuerier{}
			err := tt.call(q)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
			assert.Zero(t, q.calls, "storage must not be touched for malformed input")
		})
	}
}

func TestLedger_UpdateQuantity_RejectsNonPositive(t *testing.T) {
	led := ledger.New()
	q := &countingQuerier{}

	_, err := led.UpdateQuantity(context.Background(), q, "550e8400-e29b-41d4-a716-446655440000", 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Zero(t, q.calls)
}

func TestLedger_CreateItems_Validation(t *testing.T) {
	led := ledger.New()
	orderID := uuid.Must(uuid.FromString("880e8400-e29b-41d4-a716-446655440000"))
	productID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))

	tests := []struct {
		name  string
		items []ledger.NewItem
	}{
		{name: "empty", items: nil},
		{name: "nil_product", items: []ledger.NewItem{
			{ProductID: uuid.Nil, Quantity: 1, Price: decimal.NewFromInt(10)},
		}},
		{name: "zero_quantity", items: []ledger.NewItem{
			{ProductID: productID, Quantity: 0, Price: decimal.NewFromInt(10)},
		}},
		{name: "zero_price", items: []ledger.NewItem{
			{ProductID: productID, Quantity: 1, Price: decimal.Zero},
		}},
		{name: "negative_price", items: []ledger.NewItem{
			{ProductID: productID, Quantity: 1, Price: decimal.NewFromInt(-5)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &countingQuerier{}
			_, err := led.CreateItems(context.Background(), q, orderID, tt.items)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
			assert.Zero(t, q.calls, "validation must run before any insert")
		})
	}
}
