package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

func TestUUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "canonical_lower", value: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "canonical_upper", value: "550E8400-E29B-41D4-A716-446655440000"},
		{name: "empty", value: "", wantErr: true},
		{name: "too_short", value: "550e8400", wantErr: true},
		{name: "no_dashes", value: "550e8400e29b41d4a716446655440000", wantErr: true},
		{name: "braced", value: "{550e8400-e29b-41d4-a716-446655440000}", wantErr: true},
		{name: "urn_form", value: "urn:uuid:550e8400-e29b-41d4-a716-446655440000", wantErr: true},
		{name: "non_hex", value: "550e8400-e29b-41d4-a716-44665544000z", wantErr: true},
		{name: "misplaced_dash", value: "550e8400e-29b-41d4-a716-446655440000", wantErr: true},
		{name: "nil_uuid", value: "00000000-0000-0000-0000-000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := validate.UUID("product_id", tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			} else {
				assert.NoError(t, err)
				assert.False(t, id.IsNil())
			}
		})
	}
}

func TestUUID_PreservesValue(t *testing.T) {
	id, err := validate.UUID("order_id", "123e4567-e89b-12d3-a456-426614174000")
	assert.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id.String())
}

func TestQuantity(t *testing.T) {
	assert.NoError(t, validate.Quantity("quantity", 1))
	assert.Error(t, validate.Quantity("quantity", 0))
	assert.Error(t, validate.Quantity("quantity", -5))
}

func TestPrices(t *testing.T) {
	assert.NoError(t, validate.PositivePrice("price", decimal.NewFromFloat(0.01)))
	assert.Error(t, validate.PositivePrice("price", decimal.Zero))
	assert.Error(t, validate.PositivePrice("price", decimal.NewFromInt(-1)))

	assert.NoError(t, validate.NonNegativePrice("shipping_price", decimal.Zero))
	assert.Error(t, validate.NonNegativePrice("shipping_price", decimal.NewFromInt(-1)))
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, validate.Page{Limit: validate.DefaultPageLimit, Offset: 0}, validate.NormalizePage(0, -3))
	assert.Equal(t, validate.Page{Limit: validate.MaxPageLimit, Offset: 10}, validate.NormalizePage(1000, 10))
	assert.Equal(t, validate.Page{Limit: 25, Offset: 50}, validate.NormalizePage(25, 50))
}
