package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/core"
)

func TestWritesTranslateDisplayNames(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	e := New(resolved(t, "orders"), WithPersister(p), WithMapping())

	require.NoError(t, e.Insert(ctx, map[string]any{"id": 1, "price": 9.5}))
	require.NoError(t, e.Update(ctx, map[string]any{"id": 1, "status": "paid"}))
	require.NoError(t, e.Upsert(ctx, map[string]any{"id": 2, "customer": "acme"}))
	require.NoError(t, e.Delete(ctx, map[string]any{"id": 1}))

	require.Len(t, p.writes, 4)
	assert.Equal(t, write{op: "insert", table: "orders", record: map[string]any{"Id": 1, "Price": 9.5}}, p.writes[0])
	assert.Equal(t, write{op: "update", table: "orders", record: map[string]any{"Id": 1, "Status": "paid"}}, p.writes[1])
	assert.Equal(t, write{op: "upsert", table: "orders", record: map[string]any{"Id": 2, "Customer": "acme"}}, p.writes[2])
	assert.Equal(t, write{op: "delete", table: "orders", record: map[string]any{"Id": 1}}, p.writes[3])
}

func TestWriteRejectsUnknownKeys(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}

	e := New(resolved(t, "orders"), WithPersister(p), WithMapping())
	err := e.Insert(ctx, map[string]any{"Price": 1})
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "wrong mapped key")
	assert.Empty(t, p.writes)

	e = New(resolved(t, "orders"), WithPersister(p))
	err = e.Update(ctx, map[string]any{"price": 1})
	assert.ErrorContains(t, err, "wrong raw key")

	e = New(resolved(t, "orders"), WithPersister(p))
	assert.ErrorContains(t, e.Delete(ctx, nil), "record is empty")
}

func TestWriteFailures(t *testing.T) {
	ctx := context.Background()

	e := New(resolved(t, "orders"))
	assert.ErrorContains(t, e.Insert(ctx, map[string]any{"Id": 1}), "no persister configured")

	cause := errors.New("duplicate entry")
	e = New(resolved(t, "orders"), WithPersister(&recordingPersister{err: cause}))
	err := e.Insert(ctx, map[string]any{"Id": 1})
	require.ErrorIs(t, err, cause)
	var ee *core.ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, err.Error(), "insert: duplicate entry")
	assert.Error(t, e.Err())
}
