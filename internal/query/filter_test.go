package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/core"
	"tableq/internal/dialect/mysql"
)

func compilerFor(t *testing.T, mode Mode) Compiler {
	t.Helper()
	d := mysql.NewMySQLDialect()
	return Compiler{Resolver: NewResolver(resolved(t, "orders"), mode, d), Dialect: d}
}

func TestCompileClauses(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  Value
		where  string
		params []string
	}{
		{"numeric default", "Price", Scalar("10"), "`orders`.Price = %s", []string{"10"}},
		{"numeric gte", "Price", Scalar(">=10"), "`orders`.Price >= %s", []string{"10"}},
		{"numeric lte", "Price", Scalar("<=10"), "`orders`.Price <= %s", []string{"10"}},
		{"numeric gt", "Price", Scalar(">10"), "`orders`.Price > %s", []string{"10"}},
		{"numeric lt", "Price", Scalar("<-1.5"), "`orders`.Price < %s", []string{"-1.5"}},
		{"numeric ne with space", "Price", Scalar("!= 3.5"), "`orders`.Price != %s", []string{"3.5"}},
		{"null", "Status", Null(), "`orders`.Status IS NULL", nil},
		{"not null", "Status", NotNull(), "`orders`.Status IS NOT NULL", nil},
		{"empty text", "Status", Empty(), "`orders`.Status = ''", nil},
		{"not empty text", "Status", NotEmpty(), "`orders`.Status != ''", nil},
		{"not empty alias", "Status", Scalar("__noempty__"), "`orders`.Status != ''", nil},
		{"empty date", "CreatedAt", Empty(), "`orders`.CreatedAt IS NULL", nil},
		{"not empty date", "CreatedAt", NotEmpty(), "`orders`.CreatedAt IS NOT NULL", nil},
		{"token is case sensitive", "Status", Scalar("__NULL__"), "`orders`.Status = '%s'", []string{"__NULL__"}},
		{
			"date year", "CreatedAt", Scalar("2021"),
			"DATE_FORMAT(`orders`.CreatedAt, '%Y') = '%s'", []string{"2021"},
		},
		{
			"date day", "CreatedAt", Scalar("2021-06-30"),
			"DATE_FORMAT(`orders`.CreatedAt, '%Y-%m-%d') = '%s'", []string{"2021-06-30"},
		},
		{
			"date month range", "CreatedAt", Scalar("2021-01/2021-06"),
			"(DATE_FORMAT(`orders`.CreatedAt, '%Y-%m') >= '%s' AND DATE_FORMAT(`orders`.CreatedAt, '%Y-%m') <= '%s')",
			[]string{"2021-01", "2021-06"},
		},
		{
			"date mixed range", "CreatedAt", Scalar("2021/2021-06-30"),
			"(DATE_FORMAT(`orders`.CreatedAt, '%Y') >= '%s' AND DATE_FORMAT(`orders`.CreatedAt, '%Y-%m-%d') <= '%s')",
			[]string{"2021", "2021-06-30"},
		},
		{
			"date open end", "CreatedAt", Scalar("2021-03/"),
			"DATE_FORMAT(`orders`.CreatedAt, '%Y-%m') >= '%s'", []string{"2021-03"},
		},
		{
			"date open start", "CreatedAt", Scalar("/2021"),
			"DATE_FORMAT(`orders`.CreatedAt, '%Y') <= '%s'", []string{"2021"},
		},
		{"text equal", "Customer", Scalar("acme"), "`orders`.Customer = '%s'", []string{"acme"}},
		{"text not equal", "Customer", Scalar("!=acme"), "`orders`.Customer != '%s'", []string{"acme"}},
		{"text like", "Customer", Scalar("ac%"), "`orders`.Customer LIKE '%s'", []string{"ac%"}},
		{"text not like", "Customer", Scalar("!=%me"), "`orders`.Customer NOT LIKE '%s'", []string{"%me"}},
		{"json compares as text", "Meta", Scalar("{}"), "`orders`.Meta = '%s'", []string{"{}"}},
		{
			"numeric list", "Id", List("1", " 2", "3"),
			"`orders`.Id IN (%s, %s, %s)", []string{"1", "2", "3"},
		},
		{
			"text list", "Customer", List("a", "b'c"),
			"`orders`.Customer IN ('%s', '%s')", []string{"a", "b'c"},
		},
		{
			"raw fragment with list", "Price > %s OR Price < %s", List("1", "2"),
			"(Price > %s OR Price < %s)", []string{"1", "2"},
		},
		{
			"raw fragment with scalar", "LOWER(Customer) = '%s'", Scalar("acme"),
			"(LOWER(Customer) = '%s')", []string{"acme"},
		},
		{
			"raw fragment without params", "Price > 1 and Price < 5", None(),
			"(Price > 1 and Price < 5)", nil,
		},
	}

	c := compilerFor(t, ModeRaw)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, params, err := c.Compile(Where(tt.key, tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.params, params)
			assert.Equal(t, strings.Count(where, "%s"), len(params), "placeholders match parameters")
		})
	}
}

func TestCompileJoinsClausesWithAnd(t *testing.T) {
	c := compilerFor(t, ModeRaw)
	where, params, err := c.Compile(Filters{
		{Key: "Price", Value: Scalar(">=10")},
		{Key: "Status", Value: Null()},
		{Key: "Customer", Value: Scalar("acme")},
	})
	require.NoError(t, err)
	assert.Equal(t, "`orders`.Price >= %s AND `orders`.Status IS NULL AND `orders`.Customer = '%s'", where)
	assert.Equal(t, []string{"10", "acme"}, params)
}

func TestCompileEmptyFilters(t *testing.T) {
	where, params, err := compilerFor(t, ModeRaw).Compile(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, params)
}

func TestCompileMappedMode(t *testing.T) {
	c := compilerFor(t, ModeMapped)

	where, params, err := c.Compile(Where("price", Scalar(">5")))
	require.NoError(t, err)
	assert.Equal(t, "`orders`.Price > %s", where)
	assert.Equal(t, []string{"5"}, params)

	_, _, err = c.Compile(Where("Price", Scalar("5")))
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "wrong mapped key", ve.Message)
}

func TestCompileMappedModeFallsBackWithoutMapping(t *testing.T) {
	d := mysql.NewMySQLDialect()
	c := Compiler{Resolver: NewResolver(resolved(t, "customers"), ModeMapped, d), Dialect: d}
	assert.Equal(t, ModeRaw, c.Resolver.Mode())

	where, _, err := c.Compile(Where("Country", Scalar("ES")))
	require.NoError(t, err)
	assert.Equal(t, "`customers`.Country = '%s'", where)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value Value
		want  string
	}{
		{"unknown key", "Nope", Scalar("1"), "wrong raw key"},
		{"raw fragment missing param", "Price > %s", None(), "1 placeholders but 0 parameters"},
		{"raw fragment extra param", "Price > 1 or Price < %s", List("1", "2"), "1 placeholders but 2 parameters"},
		{"date bound length", "CreatedAt", Scalar("21"), "must be YYYY, YYYY-MM or YYYY-MM-DD"},
		{"date range bound length", "CreatedAt", Scalar("2021/2021-6"), "must be YYYY, YYYY-MM or YYYY-MM-DD"},
		{"date range without bounds", "CreatedAt", Scalar("/"), "date range has no bounds"},
		{"numeric not a number", "Price", Scalar(">=ten"), "is not a number"},
		{"numeric infinity", "Price", Scalar("Inf"), "is not a number"},
		{"numeric list element", "Id", List("1", "x"), "list element \"x\" is not a number"},
		{"empty list", "Customer", List(), "list filter is empty"},
		{"field without value", "Customer", None(), "filter has no value"},
	}

	c := compilerFor(t, ModeRaw)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Compile(Where(tt.key, tt.value))
			require.Error(t, err)
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsRawFragment(t *testing.T) {
	assert.True(t, IsRawFragment("COALESCE(Price, 0) > 1"))
	assert.True(t, IsRawFragment("Name LIKE 'a%'"))
	assert.True(t, IsRawFragment("a = 1 AND b = 2"))
	assert.True(t, IsRawFragment("a = 1 Or b = 2"))
	assert.False(t, IsRawFragment("Brand"))
	assert.False(t, IsRawFragment("Order"))
}

func TestCompileIsDeterministic(t *testing.T) {
	filters := FiltersFromMap(map[string]any{
		"Status":    "__notnull__",
		"Price":     ">=10",
		"CreatedAt": "2021-01/2021-06",
		"Id":        []string{"3", "4"},
	})

	w1, p1, err := compilerFor(t, ModeRaw).Compile(filters)
	require.NoError(t, err)
	w2, p2, err := compilerFor(t, ModeRaw).Compile(filters)
	require.NoError(t, err)

	assert.Equal(t, w1, w2)
	assert.Equal(t, p1, p2)
	assert.True(t, strings.HasPrefix(w1, "(DATE_FORMAT"), "keys are sorted: %s", w1)
}
