package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// record reads loosely typed fields out of one raw object.
type record map[string]any

// id keeps string and numeric ids and assigns a new UUID otherwise.
func (r record) id() string {
	switch v := r["id"].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case json.Number:
		return v.String()
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return uuid.NewString()
}

func (r record) text(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// number coerces a field to a decimal; anything that is not a finite
// number or numeric string, or lies outside core.InRange, is zero.
func (r record) number(key string) decimal.Decimal {
	d := r.rawNumber(key)
	if !core.InRange(d) {
		return decimal.Zero
	}
	return d
}

func (r record) rawNumber(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		return core.CoerceAmount(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case float32:
		return record{key: float64(v)}.rawNumber(key)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case decimal.Decimal:
		return v
	default:
		return decimal.Zero
	}
}

// boolean accepts real booleans, "true"/"1"-style strings and non-zero
// numbers.
func (r record) boolean(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case json.Number, float64, float32, int, int64:
		return !r.rawNumber(key).IsZero()
	default:
		return false
	}
}

// date parses a field, leaving it empty when missing or unparseable.
func (r record) date(key string) core.Date {
	s, ok := r[key].(string)
	if !ok {
		return core.Date{}
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}
