package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/identity"
	"github.com/mkuzmin-dev/storefront/internal/order"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

var (
	testUserID  = uuid.Must(uuid.FromString("123e4567-e89b-12d3-a456-426614174000"))
	testAdminID = uuid.Must(uuid.FromString("223e4567-e89b-12d3-a456-426614174000"))
)

// stubVerifier maps fixed tokens to requesters.
type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (identity.Requester, error) {
	switch token {
	case "user-token":
		return identity.Requester{UserID: testUserID, Role: identity.RoleUser}, nil
	case "admin-token":
		return identity.Requester{UserID: testAdminID, Role: identity.RoleAdmin}, nil
	default:
		return identity.Requester{}, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}
}

type stubOrderService struct {
	checkoutFunc func(ctx context.Context, userID uuid.UUID, shippingPrice decimal.Decimal, addressID string) (*order.Order, error)
}

func (s *stubOrderService) Checkout(ctx context.Context, userID uuid.UUID, shippingPrice decimal.Decimal, addressID string) (*order.Order, error) {
	return s.checkoutFunc(ctx, userID, shippingPrice, addressID)
}

func (s *stubOrderService) GetOrder(_ context.Context, _ string, _ identity.Requester) (*order.Order, error) {
	return nil, apperr.New(apperr.KindNotFound, "order not found")
}

func (s *stubOrderService) ListMyOrders(_ context.Context, _ identity.Requester, _ validate.Page) ([]order.Order, error) {
	return []order.Order{}, nil
}

func (s *stubOrderService) AdminListOrders(_ context.Context, req identity.Requester, _ order.ListFilter, _ validate.Page) ([]order.Order, error) {
	return []order.Order{}, nil
}

func (s *stubOrderService) Cancel(_ context.Context, _ string, _ identity.Requester) (*order.Order, error) {
	return nil, apperr.New(apperr.KindInvalidState, "order in status shipped cannot be cancelled")
}

func (s *stubOrderService) SetStatus(_ context.Context, _ string, status string, _ identity.Requester) (*order.Order, error) {
	return &order.Order{Status: order.Status(status)}, nil
}

func newTestRouter(orders OrderService) http.Handler {
	return NewRouter(Deps{
		Identity: nil,
		Verifier: stubVerifier{},
		Cart:     nil,
		Orders:   orders,
		Ledger:   NewLedgerHandler(nil, nil),
		Address:  NewAddressHandler(nil, nil),
	})
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestOrderHandler_Checkout_Created(t *testing.T) {
	svc := &stubOrderService{
		checkoutFunc: func(_ context.Context, userID uuid.UUID, shippingPrice decimal.Decimal, addressID string) (*order.Order, error) {
			assert.Equal(t, testUserID, userID)
			assert.True(t, shippingPrice.Equal(decimal.NewFromFloat(5.00)))
			return &order.Order{UserID: userID, Status: order.StatusPending, TotalPrice: decimal.NewFromFloat(105.00)}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/orders/", "user-token",
		`{"address_id":"99dd7400-e29b-41d4-a716-446655440000","shipping_price":"5.00"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var got order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestOrderHandler_Checkout_InsufficientStock(t *testing.T) {
	svc := &stubOrderService{
		checkoutFunc: func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ string) (*order.Order, error) {
			return nil, apperr.New(apperr.KindInsufficientStock, "insufficient stock for product x")
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/orders/", "user-token",
		`{"address_id":"99dd7400-e29b-41d4-a716-446655440000","shipping_price":"5.00"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "insufficient_stock", payload["kind"])
}

func TestOrderHandler_Checkout_BadShippingPrice(t *testing.T) {
	svc := &stubOrderService{
		checkoutFunc: func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ string) (*order.Order, error) {
			t.Fatal("service must not be reached with a malformed price")
			return nil, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/orders/", "user-token",
		`{"address_id":"99dd7400-e29b-41d4-a716-446655440000","shipping_price":"five bucks"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MissingToken(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubOrderService{}), http.MethodGet, "/orders/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_InvalidToken(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubOrderService{}), http.MethodGet, "/orders/", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminGuard(t *testing.T) {
	handler := newTestRouter(&stubOrderService{})

	rec := doRequest(t, handler, http.MethodGet, "/admin/orders", "user-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/admin/orders", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHandler_Cancel_InvalidState(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubOrderService{}), http.MethodPost,
		"/orders/880e8400-e29b-41d4-a716-446655440000/cancel", "user-token", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "invalid_state", payload["kind"])
}
