package bigquery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"tableq/internal/core"
)

// streamRow is a streamed row keyed by physical field name.
type streamRow struct {
	values   map[string]any
	insertID string
}

// Save implements bq.ValueSaver. The insert id lets BigQuery drop retried
// duplicates on a best-effort basis.
func (r streamRow) Save() (map[string]bq.Value, string, error) {
	out := make(map[string]bq.Value, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, r.insertID, nil
}

// Feed streams records into the physical table of t within the configured
// dataset. Every record must only name fields of t.
func (c *Client) Feed(ctx context.Context, t *core.Table, records []map[string]any) error {
	if c.options.Dataset == "" {
		return errors.New("bigquery dataset is required to stream records")
	}
	savers, err := toSavers(t, records)
	if err != nil {
		return err
	}

	inserter := c.client.Dataset(c.options.Dataset).Table(t.Object).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		var multi bq.PutMultiError
		if errors.As(err, &multi) {
			return fmt.Errorf("failed to stream %d of %d records: %w", len(multi), len(records), err)
		}
		return fmt.Errorf("failed to stream records: %w", err)
	}

	c.logger.Debug("records streamed", "table", t.Name, "records", len(records))
	return nil
}

func toSavers(t *core.Table, records []map[string]any) ([]streamRow, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to stream")
	}

	out := make([]streamRow, 0, len(records))
	for i, values := range records {
		if len(values) == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
		var unknown []string
		for name := range values {
			if t.FindField(name) == nil {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("record %d has unknown fields: %s", i, strings.Join(unknown, ", "))
		}
		out = append(out, streamRow{values: values, insertID: uuid.NewString()})
	}
	return out, nil
}
