package query

import (
	"context"

	"tableq/internal/core"
)

// Row is one result row keyed by column label.
type Row map[string]any

// Executor runs an assembled, fully substituted statement. It blocks until
// the rows are available; cancellation and timeouts come from ctx.
type Executor interface {
	Execute(ctx context.Context, statement string) ([]Row, error)
}

// ValueConverter is implemented by executors whose drivers return values the
// generic normalization does not know. handled reports whether v was taken.
type ValueConverter interface {
	ConvertValue(v any) (out any, handled bool, err error)
}

// Persister performs writes on behalf of an engine. Records are keyed by
// physical field name.
type Persister interface {
	Insert(ctx context.Context, table *core.Table, record map[string]any) error
	Update(ctx context.Context, table *core.Table, record map[string]any) error
	Upsert(ctx context.Context, table *core.Table, record map[string]any) error
	Delete(ctx context.Context, table *core.Table, record map[string]any) error
}

// ErrorSink receives every error an engine records.
type ErrorSink interface {
	AddError(table, message string)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, statement string) ([]Row, error)

func (f ExecutorFunc) Execute(ctx context.Context, statement string) ([]Row, error) {
	return f(ctx, statement)
}
