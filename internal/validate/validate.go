// Package validate centralizes identifier and business-rule validation so
// that every entry point rejects malformed input before any storage access.
package validate

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// UUID accepts only the canonical 8-4-4-4-12 lowercase-or-uppercase hex
// form. Braced, URN, and hashlike forms that uuid.FromString would accept
// are rejected.
func UUID(field, value string) (uuid.UUID, error) {
	if !isCanonicalUUID(value) {
		return uuid.Nil, apperr.Newf(apperr.KindValidation, "%s must be a valid UUID", field)
	}
	id, err := uuid.FromString(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Newf(apperr.KindValidation, "%s must be a valid UUID", field)
	}
	return id, nil
}

func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < 36; i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}

// Quantity enforces the strictly-positive quantity rule shared by cart
// lines and order items.
func Quantity(field string, quantity int) error {
	if quantity <= 0 {
		return apperr.Newf(apperr.KindValidation, "%s must be greater than zero", field)
	}
	return nil
}

// PositivePrice is used for order item prices, which are always > 0.
func PositivePrice(field string, price decimal.Decimal) error {
	if price.Sign() <= 0 {
		return apperr.Newf(apperr.KindValidation, "%s must be greater than zero", field)
	}
	return nil
}

// NonNegativePrice is used for shipping, which may legitimately be zero.
func NonNegativePrice(field string, price decimal.Decimal) error {
	if price.Sign() < 0 {
		return apperr.Newf(apperr.KindValidation, "%s must not be negative", field)
	}
	return nil
}

// Page is a normalized limit/offset pair.
type Page struct {
	Limit  int
	Offset int
}

// NormalizePage clamps limit into (0, MaxPageLimit] and offset to >= 0.
func NormalizePage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
