package query

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"time"

	"tableq/internal/core"
)

const (
	timeLayout      = "2006-01-02 15:04:05"
	timeLayoutMicro = "2006-01-02 15:04:05.000000"
)

// FormatTime renders driver time values the way rows expose them.
func FormatTime(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(timeLayout)
	}
	return t.Format(timeLayoutMicro)
}

// NormalizeRows replaces driver-specific wrappers with plain Go values.
// The first unsupported value aborts with an ExecutionError naming its field.
func NormalizeRows(table string, rows []Row, conv ValueConverter) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		norm := make(Row, len(row))
		for field, v := range row {
			nv, err := normalizeValue(v, conv)
			if err != nil {
				var ee *core.ExecutionError
				if errors.As(err, &ee) && ee.Type != "" && ee.Field == "" {
					ee.Table, ee.Field = table, field
					return nil, ee
				}
				return nil, &core.ExecutionError{Table: table, Err: fmt.Errorf("field %q: %w", field, err)}
			}
			norm[field] = nv
		}
		out = append(out, norm)
	}
	return out, nil
}

func normalizeValue(v any, conv ValueConverter) (any, error) {
	if conv != nil {
		out, handled, err := conv.ConvertValue(v)
		if err != nil {
			return nil, err
		}
		if handled {
			return out, nil
		}
	}

	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return FormatTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return FormatTime(*x), nil
	case *big.Rat:
		if x == nil {
			return nil, nil
		}
		f, _ := x.Float64()
		return f, nil
	case big.Rat:
		f, _ := x.Float64()
		return f, nil
	case *big.Int:
		if x == nil {
			return nil, nil
		}
		if x.IsInt64() {
			return x.Int64(), nil
		}
		return x.String(), nil
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return nil, err
		}
		return normalizeValue(inner, conv)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			nv, err := normalizeValue(item, conv)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case Row:
		return normalizeValue(map[string]any(x), conv)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			nv, err := normalizeValue(item, conv)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return nil, &core.ExecutionError{Type: fmt.Sprintf("%T", v)}
	}
}
