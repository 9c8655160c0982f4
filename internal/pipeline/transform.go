package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"stock-pivot/internal/model"
)

// CanonicalText coerces a cell to the text used for grouping. Numbers print
// without a trailing fractional zero, so 101, 101.0 and "101" all give "101".
// Blank cells give "".
func CanonicalText(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case decimal.Decimal:
		return val.String(), nil
	case float32:
		return canonicalFloat(float64(val))
	case float64:
		return canonicalFloat(val)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func canonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) {
		return "", nil
	}
	if math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite number %v", f)
	}
	return decimal.NewFromFloat(f).String(), nil
}

// parseQty reads a quantity cell exactly. ok is false for a blank cell,
// which contributes nothing to the sums. Anything non-numeric is an error.
func parseQty(v interface{}) (qty decimal.Decimal, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return val, true, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		n, err := cast.ToInt64E(val)
		if err != nil {
			return decimal.Zero, false, err
		}
		return decimal.NewFromInt(n), true, nil
	case uint, uint64:
		d, err := decimal.NewFromString(fmt.Sprint(val))
		return d, err == nil, err
	case float32:
		return parseQty(float64(val))
	case float64:
		if math.IsNaN(val) {
			return decimal.Zero, false, nil
		}
		if math.IsInf(val, 0) {
			return decimal.Zero, false, fmt.Errorf("non-finite number")
		}
		return decimal.NewFromFloat(val), true, nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return d, err == nil, err
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("not a number")
		}
		return d, true, nil
	default:
		return decimal.Zero, false, fmt.Errorf("unsupported type %T", v)
	}
}

// identityOf extracts the canonical IdentityKey of a record
func identityOf(rec model.GenericRecord) (model.IdentityKey, string, error) {
	fields := make([]string, len(model.IdentityColumns))
	for i, col := range model.IdentityColumns {
		s, err := CanonicalText(rec[col])
		if err != nil {
			return model.IdentityKey{}, col, err
		}
		fields[i] = s
	}
	return model.IdentityKey{
		Product:     fields[0],
		Description: fields[1],
		UPC:         fields[2],
		Size:        fields[3],
	}, "", nil
}
