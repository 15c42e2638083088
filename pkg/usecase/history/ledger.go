package history

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Ledger is the in-memory history of one user, newest first, backed by the
// document store. Local state is authoritative for the rest of the session:
// store failures never roll it back.
type Ledger struct {
	repo   repository.Repository
	events adapter.EventSink
	uid    model.UserID

	mu    sync.Mutex
	items []model.HistoryItem
}

type Option func(*Ledger)

// WithEventSink records load and delete outcomes to sink
func WithEventSink(sink adapter.EventSink) Option {
	return func(l *Ledger) {
		l.events = sink
	}
}

// New creates an empty ledger. With a nil repo or an empty uid the ledger is
// local only and never touches the store.
func New(repo repository.Repository, uid model.UserID, opts ...Option) *Ledger {
	l := &Ledger{
		repo:   repo,
		uid:    uid,
		events: adapter.NopEventSink(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) persistent() bool {
	return l.repo != nil && l.uid != ""
}

// Load replaces the ledger with the stored history. A failure leaves the
// ledger empty and is only logged.
func (l *Ledger) Load(ctx context.Context) []model.HistoryItem {
	if !l.persistent() {
		return l.Items()
	}

	stored, err := l.repo.ListHistory(ctx, l.uid)
	adapter.Emit(ctx, l.events, model.NewEvent(model.EventHistoryLoad, l.uid, err))

	items := make([]model.HistoryItem, 0, len(stored))
	if err != nil {
		logging.From(ctx).Error("failed to load history", logging.ErrAttr(err), "uid", l.uid)
	} else {
		for _, item := range stored {
			items = append(items, cloneItem(*item))
		}
		sortNewestFirst(items)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	logging.From(ctx).Debug("history loaded", "uid", l.uid, "count", len(items))
	return l.Items()
}

// Append inserts item at the head
func (l *Ledger) Append(item model.HistoryItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = slices.Insert(l.items, 0, cloneItem(item))
}

// ReplaceID swaps the id of an entry in place. It returns false when from is not in the ledger.
func (l *Ledger) ReplaceID(from, to model.HistoryID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.index(from); idx >= 0 {
		l.items[idx].ID = to
		return true
	}
	return false
}

// Persist writes the entry with the temporary id to the store and swaps in the
// store-assigned id. On failure the entry stays in the ledger with its temporary id.
func (l *Ledger) Persist(ctx context.Context, tempID model.HistoryID) (model.HistoryID, error) {
	if !l.persistent() {
		return "", goerr.New("ledger is not backed by a store", goerr.V("id", tempID))
	}

	item, ok := l.Get(tempID)
	if !ok {
		return "", goerr.New("history item not found", goerr.V("id", tempID))
	}

	id, err := l.repo.AddHistory(ctx, l.uid, &item)
	if err != nil {
		return "", goerr.Wrap(err, "failed to save history", goerr.V("id", tempID))
	}

	if !l.ReplaceID(tempID, id) {
		// Removed while the write was in flight: drop the stored copy too
		l.deleteRemote(ctx, id)
	}
	return id, nil
}

// Remove deletes the entry locally, then from the store. A store failure is
// logged and the entry is not restored.
func (l *Ledger) Remove(ctx context.Context, id model.HistoryID) bool {
	l.mu.Lock()
	idx := l.index(id)
	if idx >= 0 {
		l.items = slices.Delete(l.items, idx, idx+1)
	}
	l.mu.Unlock()

	if !id.IsTemporary() {
		l.deleteRemote(ctx, id)
	}
	return idx >= 0
}

func (l *Ledger) deleteRemote(ctx context.Context, id model.HistoryID) {
	if !l.persistent() {
		return
	}

	err := l.repo.DeleteHistory(ctx, l.uid, id)
	adapter.Emit(ctx, l.events, model.NewEvent(model.EventHistoryDelete, l.uid, err))
	if err != nil {
		logging.From(ctx).Error("failed to delete history", logging.ErrAttr(err), "uid", l.uid, "id", id)
	}
}

// Items returns a copy of the ledger, newest first
func (l *Ledger) Items() []model.HistoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]model.HistoryItem, len(l.items))
	for i := range l.items {
		items[i] = cloneItem(l.items[i])
	}
	return items
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Get returns a copy of the entry with id
func (l *Ledger) Get(id model.HistoryID) (model.HistoryItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.index(id); idx >= 0 {
		return cloneItem(l.items[idx]), true
	}
	return model.HistoryItem{}, false
}

func (l *Ledger) index(id model.HistoryID) int {
	return slices.IndexFunc(l.items, func(item model.HistoryItem) bool {
		return item.ID == id
	})
}

func sortNewestFirst(items []model.HistoryItem) {
	slices.SortStableFunc(items, func(a, b model.HistoryItem) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
}

func cloneItem(item model.HistoryItem) model.HistoryItem {
	if item.ImageURL != nil {
		imageURL := *item.ImageURL
		item.ImageURL = &imageURL
	}
	return item
}
