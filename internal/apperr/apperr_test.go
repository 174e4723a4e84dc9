package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := apperr.New(apperr.KindInsufficientStock, "not enough stock for product")
	wrapped := fmt.Errorf("service: checkout failed: %w", base)

	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(wrapped))
	assert.True(t, apperr.IsKind(wrapped, apperr.KindInsufficientStock))
	assert.False(t, apperr.IsKind(wrapped, apperr.KindNotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
}

func TestMessage_HidesInternalCause(t *testing.T) {
	internal := apperr.Wrap(apperr.KindInternal, "storage failure", errors.New("pq: column does not exist"))
	assert.Equal(t, "internal error", apperr.Message(internal))

	visible := apperr.New(apperr.KindNotFound, "order not found")
	assert.Equal(t, "order not found", apperr.Message(visible))
}

func TestFromPostgres(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind apperr.Kind
	}{
		{
			name:     "no_rows",
			err:      pgx.ErrNoRows,
			wantKind: apperr.KindNotFound,
		},
		{
			name:     "unique_violation",
			err:      &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantKind: apperr.KindConflict,
		},
		{
			name:     "foreign_key_violation",
			err:      &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantKind: apperr.KindNotFound,
		},
		{
			name:     "serialization_failure",
			err:      &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantKind: apperr.KindUnavailable,
		},
		{
			name:     "unknown",
			err:      errors.New("connection gone weird"),
			wantKind: apperr.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperr.FromPostgres(tt.err, "resource not found")
			assert.Equal(t, tt.wantKind, got.Kind)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindEmptyCart, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindInsufficientStock, http.StatusConflict},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindInvalidState, http.StatusUnprocessableEntity},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindUnauthenticated, http.StatusUnauthorized},
		{apperr.KindUnavailable, http.StatusServiceUnavailable},
		{apperr.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(apperr.New(tt.kind, "x")))
		})
	}
}
