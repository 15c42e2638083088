package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/usecase/history"
	"github.com/m-mizutani/gt"
)

// mockRepository wraps the in-memory repository with injectable failures
type mockRepository struct {
	*repository.Memory
	listErr   error
	addErr    error
	deleteErr error
	deleted   []model.HistoryID
}

func newMockRepository() *mockRepository {
	return &mockRepository{Memory: repository.NewMemory()}
}

func (m *mockRepository) ListHistory(ctx context.Context, uid model.UserID) ([]*model.HistoryItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.Memory.ListHistory(ctx, uid)
}

func (m *mockRepository) AddHistory(ctx context.Context, uid model.UserID, item *model.HistoryItem) (model.HistoryID, error) {
	if m.addErr != nil {
		return "", m.addErr
	}
	return m.Memory.AddHistory(ctx, uid, item)
}

func (m *mockRepository) DeleteHistory(ctx context.Context, uid model.UserID, id model.HistoryID) error {
	m.deleted = append(m.deleted, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	return m.Memory.DeleteHistory(ctx, uid, id)
}

func newItem(idea string, ts int64) model.HistoryItem {
	imageURL := "https://example.com/" + idea + ".jpg"
	return model.HistoryItem{
		ID:        model.NewTemporaryHistoryID(),
		Timestamp: ts,
		Idea:      idea,
		Content:   model.ContentPackage{BlogTitle: "title of " + idea},
		ImageURL:  &imageURL,
	}
}

func seed(t *testing.T, repo repository.Repository, uid model.UserID, items ...model.HistoryItem) []model.HistoryID {
	var ids []model.HistoryID
	for _, item := range items {
		id, err := repo.AddHistory(context.Background(), uid, &item)
		gt.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestLedgerLoad(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	seed(t, repo, "u1", newItem("first", 1000), newItem("third", 3000), newItem("second", 2000))
	seed(t, repo, "u2", newItem("other", 5000))

	ledger := history.New(repo, "u1")
	items := ledger.Load(ctx)
	gt.A(t, items).Length(3)
	gt.Equal(t, items[0].Idea, "third")
	gt.Equal(t, items[1].Idea, "second")
	gt.Equal(t, items[2].Idea, "first")
	gt.False(t, items[0].ID.IsTemporary())
}

func TestLedgerLoadFailureYieldsEmpty(t *testing.T) {
	repo := newMockRepository()
	seed(t, repo, "u1", newItem("first", 1000))
	repo.listErr = errors.New("unavailable")

	ledger := history.New(repo, "u1")
	ledger.Append(newItem("local", 500))

	items := ledger.Load(context.Background())
	gt.A(t, items).Length(0)
	gt.Equal(t, ledger.Len(), 0)
}

func TestLedgerAppendIsNewestFirst(t *testing.T) {
	ledger := history.New(nil, "")
	ledger.Append(newItem("a", 1000))
	ledger.Append(newItem("b", 2000))
	ledger.Append(newItem("c", 3000))

	items := ledger.Items()
	gt.A(t, items).Length(3)
	gt.Equal(t, items[0].Idea, "c")
	for i := 1; i < len(items); i++ {
		gt.True(t, items[i-1].Timestamp >= items[i].Timestamp)
	}
}

func TestLedgerPersistReplacesTemporaryID(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	ledger := history.New(repo, "u1")

	item := newItem("unity", 1000)
	ledger.Append(item)

	id, err := ledger.Persist(ctx, item.ID)
	gt.NoError(t, err)
	gt.False(t, id.IsTemporary())

	_, ok := ledger.Get(item.ID)
	gt.False(t, ok)
	stored, ok := ledger.Get(id)
	gt.True(t, ok)
	gt.Equal(t, stored.Idea, "unity")

	persisted, err := repo.ListHistory(ctx, "u1")
	gt.NoError(t, err)
	gt.A(t, persisted).Length(1)
	gt.Equal(t, persisted[0].ID, id)
}

func TestLedgerPersistFailureKeepsItem(t *testing.T) {
	repo := newMockRepository()
	repo.addErr = errors.New("permission denied")
	ledger := history.New(repo, "u1")

	item := newItem("unity", 1000)
	ledger.Append(item)

	_, err := ledger.Persist(context.Background(), item.ID)
	gt.Error(t, err)

	kept, ok := ledger.Get(item.ID)
	gt.True(t, ok)
	gt.Equal(t, kept.Idea, "unity")
}

func TestLedgerRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from store", func(t *testing.T) {
		repo := newMockRepository()
		seed(t, repo, "u1", newItem("a", 1000), newItem("b", 2000))
		ledger := history.New(repo, "u1")
		items := ledger.Load(ctx)

		gt.True(t, ledger.Remove(ctx, items[0].ID))
		gt.Equal(t, ledger.Len(), 1)

		persisted, err := repo.ListHistory(ctx, "u1")
		gt.NoError(t, err)
		gt.A(t, persisted).Length(1)
		gt.Equal(t, persisted[0].Idea, "a")
	})

	t.Run("store failure does not re-insert", func(t *testing.T) {
		repo := newMockRepository()
		seed(t, repo, "u1", newItem("a", 1000))
		ledger := history.New(repo, "u1")
		items := ledger.Load(ctx)
		repo.deleteErr = errors.New("permission denied")

		gt.True(t, ledger.Remove(ctx, items[0].ID))
		_, ok := ledger.Get(items[0].ID)
		gt.False(t, ok)
		gt.Equal(t, ledger.Len(), 0)
		gt.A(t, repo.deleted).Length(1)
	})

	t.Run("temporary id is never deleted remotely", func(t *testing.T) {
		repo := newMockRepository()
		ledger := history.New(repo, "u1")
		item := newItem("a", 1000)
		ledger.Append(item)

		gt.True(t, ledger.Remove(ctx, item.ID))
		gt.A(t, repo.deleted).Length(0)
	})

	t.Run("unknown id", func(t *testing.T) {
		ledger := history.New(nil, "")
		gt.False(t, ledger.Remove(ctx, "missing"))
	})
}

func TestLedgerItemsAreCopies(t *testing.T) {
	ledger := history.New(nil, "")
	item := newItem("a", 1000)
	ledger.Append(item)

	items := ledger.Items()
	*items[0].ImageURL = "changed"
	items[0].Idea = "changed"

	again, ok := ledger.Get(item.ID)
	gt.True(t, ok)
	gt.Equal(t, again.Idea, "a")
	gt.Equal(t, again.Image(), "https://example.com/a.jpg")
}

func TestRestore(t *testing.T) {
	ledger := history.New(nil, "")
	item := newItem("unity", 1000)
	ledger.Append(item)

	sel := history.Restore(item)
	gt.Equal(t, sel.Idea, "unity")
	gt.Equal(t, sel.ImageURL, "https://example.com/unity.jpg")
	gt.Equal(t, sel.Content.BlogTitle, "title of unity")
	gt.Equal(t, ledger.Len(), 1)

	item.ImageURL = nil
	gt.Equal(t, history.Restore(item).ImageURL, "")
}
