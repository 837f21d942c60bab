package query

import (
	"fmt"
	"sort"
	"strings"
)

// Special filter values. Matching is exact and case-sensitive.
const (
	TokenNull        = "__null__"
	TokenNotNull     = "__notnull__"
	TokenEmpty       = "__empty__"
	TokenNotEmpty    = "__notempty__"
	TokenNotEmptyAlt = "__noempty__"
)

// ValueKind tells which variant a Value holds.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindScalar
	KindList
)

// Value is a filter value: nothing, a single string or an ordered list.
type Value struct {
	kind   ValueKind
	scalar string
	list   []string
}

// Scalar returns a single-value filter.
func Scalar(s string) Value { return Value{kind: KindScalar, scalar: s} }

// List returns a membership filter.
func List(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// None returns the empty value, used by raw fragments without parameters.
func None() Value { return Value{} }

func Null() Value     { return Scalar(TokenNull) }
func NotNull() Value  { return Scalar(TokenNotNull) }
func Empty() Value    { return Scalar(TokenEmpty) }
func NotEmpty() Value { return Scalar(TokenNotEmpty) }

func (v Value) Kind() ValueKind { return v.kind }

// String returns the scalar value, or the comma-joined list.
func (v Value) String() string {
	if v.kind == KindList {
		return strings.Join(v.list, ",")
	}
	return v.scalar
}

// Items returns a copy of the list elements.
func (v Value) Items() []string { return append([]string(nil), v.list...) }

// Params returns the values a raw fragment binds, in order.
func (v Value) Params() []string {
	switch v.kind {
	case KindScalar:
		return []string{v.scalar}
	case KindList:
		return v.Items()
	default:
		return nil
	}
}

func (v Value) token() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	switch v.scalar {
	case TokenNull, TokenNotNull, TokenEmpty, TokenNotEmpty, TokenNotEmptyAlt:
		return v.scalar, true
	}
	return "", false
}

// Filter is one condition keyed by a field name, display name or raw fragment.
// A raw fragment treats every %s as a placeholder; see IsRawFragment.
type Filter struct {
	Key   string
	Value Value
}

// Filters is an ordered filter specification.
type Filters []Filter

// Where starts a filter list; it is shorthand for Filters{}.Set(key, v).
func Where(key string, v Value) Filters {
	return Filters{{Key: key, Value: v}}
}

// Set replaces the value of key in place or appends it.
func (f Filters) Set(key string, v Value) Filters {
	for i := range f {
		if f[i].Key == key {
			f[i].Value = v
			return f
		}
	}
	return append(f, Filter{Key: key, Value: v})
}

// Get returns the value stored for key.
func (f Filters) Get(key string) (Value, bool) {
	for _, item := range f {
		if item.Key == key {
			return item.Value, true
		}
	}
	return Value{}, false
}

// Merge returns f with every entry of other set on top of it.
func (f Filters) Merge(other Filters) Filters {
	out := append(Filters(nil), f...)
	for _, item := range other {
		out = out.Set(item.Key, item.Value)
	}
	return out
}

// FiltersFromMap converts a decoded map into Filters with keys in sorted
// order. Strings become scalars, slices become lists and nil becomes None;
// other values are formatted with fmt.
func FiltersFromMap(m map[string]any) Filters {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Filters, 0, len(keys))
	for _, k := range keys {
		out = append(out, Filter{Key: k, Value: toValue(m[k])})
	}
	return out
}

func toValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return None()
	case Value:
		return v
	case string:
		return Scalar(v)
	case []string:
		return List(v...)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		return List(items...)
	default:
		return Scalar(fmt.Sprint(v))
	}
}
