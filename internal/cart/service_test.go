package cart_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/cart"
	"github.com/mkuzmin-dev/storefront/internal/catalog"
	"github.com/mkuzmin-dev/storefront/internal/db"
)

type mockCartRepo struct {
	getFunc       func(ctx context.Context, q db.Querier, userID, productID uuid.UUID) (*cart.Item, error)
	upsertFunc    func(ctx context.Context, q db.Querier, item *cart.Item) error
	deleteFunc    func(ctx context.Context, q db.Querier, userID, productID uuid.UUID) error
	clearFunc     func(ctx context.Context, q db.Querier, userID uuid.UUID) (int64, error)
	listFunc      func(ctx context.Context, q db.Querier, userID uuid.UUID) ([]cart.Item, error)
	listLinesFunc func(ctx context.Context, q db.Querier, userID uuid.UUID) ([]cart.Line, error)
}

func (m *mockCartRepo) Get(ctx context.Context, q db.Querier, userID, productID uuid.UUID) (*cart.Item, error) {
	return m.getFunc(ctx, q, userID, productID)
}

func (m *mockCartRepo) Upsert(ctx context.Context, q db.Querier, item *cart.Item) error {
	return m.upsertFunc(ctx, q, item)
}

func (m *mockCartRepo) Delete(ctx context.Context, q db.Querier, userID, productID uuid.UUID) error {
	return m.deleteFunc(ctx, q, userID, productID)
}

func (m *mockCartRepo) Clear(ctx context.Context, q db.Querier, userID uuid.UUID) (int64, error) {
	return m.clearFunc(ctx, q, userID)
}

func (m *mockCartRepo) List(ctx context.Context, q db.Querier, userID uuid.UUID) ([]cart.Item, error) {
	return m.listFunc(ctx, q, userID)
}

func (m *mockCartRepo) ListLines(ctx context.Context, q db.Querier, userID uuid.UUID) ([]cart.Line, error) {
	return m.listLinesFunc(ctx, q, userID)
}

type mockProducts struct {
	getProductFunc func(ctx context.Context, q db.Querier, id uuid.UUID) (*catalog.Product, error)
}

func (m *mockProducts) GetProduct(ctx context.Context, q db.Querier, id uuid.UUID) (*catalog.Product, error) {
	return m.getProductFunc(ctx, q, id)
}

var (
	testUserID    = uuid.Must(uuid.FromString("123e4567-e89b-12d3-a456-426614174000"))
	testProductID = "550e8400-e29b-41d4-a716-446655440000"
)

func productWithStock(stock int) *mockProducts {
	return &mockProducts{
		getProductFunc: func(_ context.Context, _ db.Querier, id uuid.UUID) (*catalog.Product, error) {
			return &catalog.Product{ID: id, Name: "widget", Price: decimal.NewFromInt(25), Stock: stock}, nil
		},
	}
}

func TestService_AddItem_SumsQuantities(t *testing.T) {
	stored := 3
	var upserted *cart.Item

	repo := &mockCartRepo{
		getFunc: func(_ context.Context, _ db.Querier, userID, productID uuid.UUID) (*cart.Item, error) {
			return &cart.Item{UserID: userID, ProductID: productID, Quantity: stored}, nil
		},
		upsertFunc: func(_ context.Context, _ db.Querier, item *cart.Item) error {
			upserted = item
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	err := svc.AddItem(context.Background(), testUserID, testProductID, 2)

	require.NoError(t, err)
	require.NotNil(t, upserted)
	assert.Equal(t, 5, upserted.Quantity)
}

func TestService_AddItem_FirstAdd(t *testing.T) {
	var upserted *cart.Item

	repo := &mockCartRepo{
		getFunc: func(_ context.Context, _ db.Querier, _, _ uuid.UUID) (*cart.Item, error) {
			return nil, apperr.New(apperr.KindNotFound, "cart item not found")
		},
		upsertFunc: func(_ context.Context, _ db.Querier, item *cart.Item) error {
			upserted = item
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	err := svc.AddItem(context.Background(), testUserID, testProductID, 3)

	require.NoError(t, err)
	require.NotNil(t, upserted)
	assert.Equal(t, 3, upserted.Quantity)
}

func TestService_AddItem_ExceedsStock(t *testing.T) {
	repo := &mockCartRepo{
		getFunc: func(_ context.Context, _ db.Querier, _, _ uuid.UUID) (*cart.Item, error) {
			return &cart.Item{Quantity: 8}, nil
		},
		upsertFunc: func(_ context.Context, _ db.Querier, _ *cart.Item) error {
			t.Fatal("upsert must not be called when stock is exceeded")
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	err := svc.AddItem(context.Background(), testUserID, testProductID, 3)

	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
}

func TestService_AddItem_BadInput(t *testing.T) {
	svc := cart.NewService(nil, &mockCartRepo{}, productWithStock(10))

	err := svc.AddItem(context.Background(), testUserID, "not-a-uuid", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = svc.AddItem(context.Background(), testUserID, testProductID, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestService_AddItem_ProductNotFound(t *testing.T) {
	products := &mockProducts{
		getProductFunc: func(_ context.Context, _ db.Querier, _ uuid.UUID) (*catalog.Product, error) {
			return nil, apperr.New(apperr.KindNotFound, "product not found")
		},
	}

	svc := cart.NewService(nil, &mockCartRepo{}, products)
	err := svc.AddItem(context.Background(), testUserID, testProductID, 1)

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestService_UpdateQuantity_Replaces(t *testing.T) {
	var upserted *cart.Item

	repo := &mockCartRepo{
		upsertFunc: func(_ context.Context, _ db.Querier, item *cart.Item) error {
			upserted = item
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	err := svc.UpdateQuantity(context.Background(), testUserID, testProductID, 1)

	require.NoError(t, err)
	require.NotNil(t, upserted)
	assert.Equal(t, 1, upserted.Quantity)
}

func TestService_UpdateQuantity_ZeroRemoves(t *testing.T) {
	deleted := false

	repo := &mockCartRepo{
		deleteFunc: func(_ context.Context, _ db.Querier, _, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))

	require.NoError(t, svc.UpdateQuantity(context.Background(), testUserID, testProductID, 0))
	assert.True(t, deleted)

	deleted = false
	require.NoError(t, svc.UpdateQuantity(context.Background(), testUserID, testProductID, -4))
	assert.True(t, deleted)
}

func TestService_UpdateQuantity_ExceedsStock(t *testing.T) {
	svc := cart.NewService(nil, &mockCartRepo{}, productWithStock(2))
	err := svc.UpdateQuantity(context.Background(), testUserID, testProductID, 3)

	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
}

func TestService_RemoveItem_Idempotent(t *testing.T) {
	calls := 0
	repo := &mockCartRepo{
		deleteFunc: func(_ context.Context, _ db.Querier, _, _ uuid.UUID) error {
			calls++
			return nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))

	require.NoError(t, svc.RemoveItem(context.Background(), testUserID, testProductID))
	require.NoError(t, svc.RemoveItem(context.Background(), testUserID, testProductID))
	assert.Equal(t, 2, calls)
}

func TestService_GetCart_Summary(t *testing.T) {
	lines := []cart.Line{
		{Quantity: 4, Price: decimal.NewFromFloat(25.00), LineTotal: decimal.NewFromFloat(100.00)},
		{Quantity: 1, Price: decimal.NewFromFloat(9.50), LineTotal: decimal.NewFromFloat(9.50)},
	}

	repo := &mockCartRepo{
		listLinesFunc: func(_ context.Context, _ db.Querier, _ uuid.UUID) ([]cart.Line, error) {
			return lines, nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	view, err := svc.GetCart(context.Background(), testUserID)

	require.NoError(t, err)

	want := cart.Summary{
		TotalQuantity: 5,
		TotalLines:    2,
		TotalAmount:   decimal.NewFromFloat(109.50),
	}
	if diff := cmp.Diff(want, view.Summary, cmp.Comparer(decimal.Decimal.Equal)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestService_GetCart_Empty(t *testing.T) {
	repo := &mockCartRepo{
		listLinesFunc: func(_ context.Context, _ db.Querier, _ uuid.UUID) ([]cart.Line, error) {
			return []cart.Line{}, nil
		},
	}

	svc := cart.NewService(nil, repo, productWithStock(10))
	view, err := svc.GetCart(context.Background(), testUserID)

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Summary.TotalQuantity)
	assert.True(t, view.Summary.TotalAmount.IsZero())
}
