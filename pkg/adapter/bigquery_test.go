package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestNopEventSink(t *testing.T) {
	sink := adapter.NopEventSink()
	gt.NoError(t, sink.Record(context.Background(), model.NewEvent(model.EventGeneration, "u1", nil)))
}

func TestBigQueryEventSink(t *testing.T) {
	projectID := os.Getenv("TEST_BIGQUERY_PROJECT")
	if projectID == "" {
		t.Skip("TEST_BIGQUERY_PROJECT is not set")
	}

	datasetID := os.Getenv("TEST_BIGQUERY_DATASET")
	if datasetID == "" {
		t.Skip("TEST_BIGQUERY_DATASET is not set")
	}

	table := os.Getenv("TEST_BIGQUERY_TABLE")
	if table == "" {
		t.Skip("TEST_BIGQUERY_TABLE is not set")
	}

	ctx := context.Background()
	gt.NoError(t, adapter.EnsureEventTable(ctx, projectID, datasetID, table))

	sink, err := adapter.NewBigQueryEventSink(ctx, projectID, datasetID, table)
	gt.NoError(t, err)

	gt.NoError(t, sink.Record(ctx,
		model.NewEvent(model.EventGeneration, "test-user", nil),
		model.NewEvent(model.EventImageUpload, "test-user", os.ErrPermission),
	))
}

type failingSink struct {
	called int
}

func (s *failingSink) Record(ctx context.Context, events ...*model.Event) error {
	s.called++
	return os.ErrClosed
}

func TestEmit(t *testing.T) {
	sink := &failingSink{}
	adapter.Emit(context.Background(), sink, model.NewEvent(model.EventHistoryLoad, "u1", nil))
	gt.Equal(t, sink.called, 1)

	// nil sink is a no-op
	adapter.Emit(context.Background(), nil, model.NewEvent(model.EventHistoryLoad, "u1", nil))
}
