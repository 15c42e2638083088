package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// EventSink records application events for analytics
type EventSink interface {
	Record(ctx context.Context, events ...*model.Event) error
}

// Emit records ev to sink. A recording failure is logged and otherwise ignored.
func Emit(ctx context.Context, sink EventSink, ev *model.Event) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, ev); err != nil {
		logging.From(ctx).Warn("failed to record event", logging.ErrAttr(err), "type", ev.Type)
	}
}

type bigqueryEventSink struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

// NewBigQueryEventSink creates an EventSink streaming rows into project.dataset.table
func NewBigQueryEventSink(ctx context.Context, projectID, datasetID, tableID string) (EventSink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryEventSink{
		client:   client,
		inserter: client.Dataset(datasetID).Table(tableID).Inserter(),
	}, nil
}

func (s *bigqueryEventSink) Record(ctx context.Context, events ...*model.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := s.inserter.Put(ctx, events); err != nil {
		return goerr.Wrap(err, "failed to insert events", goerr.V("count", len(events)))
	}
	return nil
}

// EnsureEventTable creates the events table with a schema inferred from model.Event if it does not exist
func EnsureEventTable(ctx context.Context, projectID, datasetID, tableID string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return goerr.Wrap(err, "failed to create BigQuery client")
	}
	defer client.Close()

	table := client.Dataset(datasetID).Table(tableID)
	if _, err := table.Metadata(ctx); err == nil {
		return nil
	} else if !IsNotFound(err) {
		return goerr.Wrap(err, "failed to get table metadata", goerr.V("table", tableID))
	}

	schema, err := bigquery.InferSchema(model.Event{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer event schema")
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Field: "created_at",
		},
	}
	if err := table.Create(ctx, meta); err != nil {
		return goerr.Wrap(err, "failed to create event table", goerr.V("table", tableID))
	}
	return nil
}

type nopEventSink struct{}

// NopEventSink discards every event
func NopEventSink() EventSink {
	return nopEventSink{}
}

func (nopEventSink) Record(ctx context.Context, events ...*model.Event) error {
	return nil
}
