// Package bigquery runs assembled statements on Google BigQuery and streams
// records into BigQuery tables.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"tableq/internal/core"
	"tableq/internal/query"
)

// Options describe the project and dataset statements run against.
type Options struct {
	ProjectID       string
	Dataset         string
	Location        string
	CredentialsFile string
	Logger          *slog.Logger
	// ClientOptions are appended after the credentials option.
	ClientOptions []option.ClientOption
}

// Client implements query.Executor, query.ValueConverter and
// query.Persister. Only Insert is supported as a write.
type Client struct {
	client  *bq.Client
	options Options
	logger  *slog.Logger
}

// Open creates a BigQuery client for options.ProjectID.
func Open(ctx context.Context, options Options) (*Client, error) {
	if options.ProjectID == "" {
		return nil, errors.New("bigquery project id is required")
	}

	var opts []option.ClientOption
	if options.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(options.CredentialsFile))
	}
	opts = append(opts, options.ClientOptions...)

	client, err := bq.NewClient(ctx, options.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	if options.Location != "" {
		client.Location = options.Location
	}
	return New(client, options), nil
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *bq.Client, options Options) *Client {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{client: client, options: options, logger: logger}
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Execute runs statement as a standard SQL query and reads every row.
func (c *Client) Execute(ctx context.Context, statement string) ([]query.Row, error) {
	q := c.client.Query(statement)
	if c.options.Dataset != "" {
		q.DefaultProjectID = c.options.ProjectID
		q.DefaultDatasetID = c.options.Dataset
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	rows, err := collect(it)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("statement executed", "rows", len(rows), "job_rows", it.TotalRows)
	return rows, nil
}

// rowSource is the part of *bq.RowIterator that collect needs.
type rowSource interface {
	Next(dst any) error
}

func collect(it rowSource) ([]query.Row, error) {
	out := make([]query.Row, 0)
	for {
		var values map[string]bq.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make(query.Row, len(values))
		for name, v := range values {
			row[name] = plain(v)
		}
		out = append(out, row)
	}
}

// plain turns nested BigQuery containers into the generic forms row
// normalization walks.
func plain(v bq.Value) any {
	switch x := v.(type) {
	case []bq.Value:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	case map[string]bq.Value:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = plain(item)
		}
		return out
	default:
		return x
	}
}

// ConvertValue renders the civil types BigQuery returns for DATE, DATETIME
// and TIME columns.
func (c *Client) ConvertValue(v any) (any, bool, error) {
	switch x := v.(type) {
	case civil.Date:
		return x.String(), true, nil
	case civil.DateTime:
		return query.FormatTime(x.In(time.UTC)), true, nil
	case civil.Time:
		return x.String(), true, nil
	}
	return nil, false, nil
}

// Insert streams a single record.
func (c *Client) Insert(ctx context.Context, t *core.Table, record map[string]any) error {
	return c.Feed(ctx, t, []map[string]any{record})
}

// Update is not supported for streamed tables.
func (c *Client) Update(context.Context, *core.Table, map[string]any) error {
	return fmt.Errorf("bigquery update: %w", errors.ErrUnsupported)
}

// Upsert is not supported for streamed tables.
func (c *Client) Upsert(context.Context, *core.Table, map[string]any) error {
	return fmt.Errorf("bigquery upsert: %w", errors.ErrUnsupported)
}

// Delete is not supported for streamed tables.
func (c *Client) Delete(context.Context, *core.Table, map[string]any) error {
	return fmt.Errorf("bigquery delete: %w", errors.ErrUnsupported)
}
