package validate

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// decimalValue lets numeric tags (gte, lte, gt) apply to decimal amounts.
func decimalValue(field reflect.Value) any {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := v.Float64()
		return f
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		f, _ := v.Decimal.Float64()
		return f
	}
	return nil
}

func decimalTypes() []any {
	return []any{decimal.Decimal{}, decimal.NullDecimal{}}
}

// NonNegative records a problem when d is below zero.
func (v Violations) NonNegative(field string, d decimal.Decimal) {
	v.Check(!d.IsNegative(), field, "must not be negative")
}

// NonNegativePtr checks d only when it was supplied.
func (v Violations) NonNegativePtr(field string, d *decimal.Decimal) {
	if d != nil {
		v.NonNegative(field, *d)
	}
}
