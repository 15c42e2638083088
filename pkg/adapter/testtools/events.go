package testtools

import (
	"context"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
)

// EventRecorder keeps every recorded event in memory
type EventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

var _ adapter.EventSink = (*EventRecorder)(nil)

func (r *EventRecorder) Record(ctx context.Context, events ...*model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.events = append(r.events, *ev)
	}
	return nil
}

// Of returns the recorded events of typ
func (r *EventRecorder) Of(typ model.EventType) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []model.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			found = append(found, ev)
		}
	}
	return found
}
