package bigquery

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"tableq/internal/core"
	"tableq/internal/query"
)

// fakeRows replays fixed rows the way *bq.RowIterator does.
type fakeRows struct {
	rows []map[string]bq.Value
	err  error
}

func (f *fakeRows) Next(dst any) error {
	if len(f.rows) == 0 {
		if f.err != nil {
			return f.err
		}
		return iterator.Done
	}
	*(dst.(*map[string]bq.Value)) = f.rows[0]
	f.rows = f.rows[1:]
	return nil
}

func TestCollect(t *testing.T) {
	rows, err := collect(&fakeRows{rows: []map[string]bq.Value{
		{"Id": int64(1), "Tags": []bq.Value{"a", "b"}},
		{"Id": int64(2), "Meta": map[string]bq.Value{"k": int64(3)}},
	}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, query.Row{"Id": int64(1), "Tags": []any{"a", "b"}}, rows[0])
	assert.Equal(t, query.Row{"Id": int64(2), "Meta": map[string]any{"k": int64(3)}}, rows[1])

	rows, err = collect(&fakeRows{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	cause := errors.New("quota exceeded")
	_, err = collect(&fakeRows{err: cause})
	require.ErrorIs(t, err, cause)
}

func TestConvertValue(t *testing.T) {
	c := New(nil, Options{})

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"date", civil.Date{Year: 2021, Month: time.March, Day: 4}, "2021-03-04"},
		{
			"datetime",
			civil.DateTime{Date: civil.Date{Year: 2021, Month: time.March, Day: 4}, Time: civil.Time{Hour: 5, Minute: 6, Second: 7}},
			"2021-03-04 05:06:07",
		},
		{
			"datetime with micros",
			civil.DateTime{Date: civil.Date{Year: 2021, Month: time.March, Day: 4}, Time: civil.Time{Hour: 5, Nanosecond: 120000000}},
			"2021-03-04 05:00:00.120000",
		},
		{"time", civil.Time{Hour: 13, Minute: 30}, "13:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, handled, err := c.ConvertValue(tt.in)
			require.NoError(t, err)
			assert.True(t, handled)
			assert.Equal(t, tt.want, out)
		})
	}

	_, handled, err := c.ConvertValue(int64(1))
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestNormalizeThroughConverter(t *testing.T) {
	c := New(nil, Options{})
	rows, err := query.NormalizeRows("sales", []query.Row{{
		"Day":    civil.Date{Year: 2020, Month: time.December, Day: 31},
		"Amount": big.NewRat(5, 2),
		"Nested": []any{civil.Date{Year: 2020, Month: time.January, Day: 1}},
	}}, c)
	require.NoError(t, err)
	assert.Equal(t, query.Row{
		"Day":    "2020-12-31",
		"Amount": 2.5,
		"Nested": []any{"2020-01-01"},
	}, rows[0])
}

func TestCivilValuesNeedConverter(t *testing.T) {
	tbl := &core.Table{Name: "sales", Object: "sales", Fields: []*core.Field{
		core.NewField("Day", "date", "isKey"),
		core.NewField("Amount", "number", ""),
	}}
	c := New(nil, Options{})
	var _ query.Executor = c
	var _ query.Persister = c
	var _ query.ValueConverter = c

	e := query.New(tbl, query.WithExecutor(query.ExecutorFunc(func(_ context.Context, _ string) ([]query.Row, error) {
		return collect(&fakeRows{rows: []map[string]bq.Value{{"Day": civil.Date{Year: 2022, Month: time.May, Day: 1}}}})
	})))
	rows, err := e.Fetch(context.Background(), nil)
	require.Error(t, err, "civil dates need the bigquery converter")
	assert.Nil(t, rows)
}

func TestToSavers(t *testing.T) {
	tbl := &core.Table{Name: "sales", Object: "sales_v2", Fields: []*core.Field{
		core.NewField("Day", "date", ""),
		core.NewField("Amount", "number", ""),
	}}

	savers, err := toSavers(tbl, []map[string]any{{"Day": "2021-01-01", "Amount": 3}, {"Amount": 4}})
	require.NoError(t, err)
	require.Len(t, savers, 2)

	values, id, err := savers[0].Save()
	require.NoError(t, err)
	assert.Equal(t, map[string]bq.Value{"Day": "2021-01-01", "Amount": 3}, values)
	assert.NotEmpty(t, id)
	_, other, _ := savers[1].Save()
	assert.NotEqual(t, id, other)

	_, err = toSavers(tbl, nil)
	assert.ErrorContains(t, err, "no records to stream")
	_, err = toSavers(tbl, []map[string]any{{}})
	assert.ErrorContains(t, err, "record 0 is empty")
	_, err = toSavers(tbl, []map[string]any{{"Day": "x"}, {"Zeta": 1, "Alpha": 2}})
	assert.ErrorContains(t, err, "record 1 has unknown fields: Alpha, Zeta")
}

func TestUnsupportedWrites(t *testing.T) {
	ctx := context.Background()
	c := New(nil, Options{})
	tbl := &core.Table{Name: "sales", Object: "sales"}

	assert.ErrorIs(t, c.Update(ctx, tbl, nil), errors.ErrUnsupported)
	assert.ErrorIs(t, c.Upsert(ctx, tbl, nil), errors.ErrUnsupported)
	assert.ErrorIs(t, c.Delete(ctx, tbl, nil), errors.ErrUnsupported)
	assert.ErrorContains(t, c.Insert(ctx, tbl, map[string]any{"a": 1}), "dataset is required")
}

func TestOpenRequiresProject(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.ErrorContains(t, err, "project id is required")
	assert.NoError(t, New(nil, Options{}).Close())
}
