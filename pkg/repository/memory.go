package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/alchemy/pkg/model"
)

// Memory is an in-process Repository used by tests and offline runs
type Memory struct {
	mu        sync.Mutex
	profiles  map[model.UserID]*model.UserProfile
	histories map[model.UserID]map[model.HistoryID]*model.HistoryItem
}

func NewMemory() *Memory {
	return &Memory{
		profiles:  make(map[model.UserID]*model.UserProfile),
		histories: make(map[model.UserID]map[model.HistoryID]*model.HistoryItem),
	}
}

func (m *Memory) GetProfile(ctx context.Context, uid model.UserID) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[uid]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (m *Memory) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.profiles[profile.UID]
	if !ok {
		m.profiles[profile.UID] = cloneProfile(profile)
		return nil
	}

	// Same as a merge write of every field in profileFields
	merged := cloneProfile(profile)
	if merged.Branding == nil {
		merged.Branding = stored.Branding
	}
	m.profiles[profile.UID] = merged
	return nil
}

func (m *Memory) AddHistory(ctx context.Context, uid model.UserID, item *model.HistoryItem) (model.HistoryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := model.HistoryID(uuid.New().String())
	stored := *item
	stored.ID = id
	if m.histories[uid] == nil {
		m.histories[uid] = make(map[model.HistoryID]*model.HistoryItem)
	}
	m.histories[uid][id] = &stored
	return id, nil
}

func (m *Memory) DeleteHistory(ctx context.Context, uid model.UserID, id model.HistoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.histories[uid], id)
	return nil
}

func (m *Memory) ListHistory(ctx context.Context, uid model.UserID) ([]*model.HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]*model.HistoryItem, 0, len(m.histories[uid]))
	for _, item := range m.histories[uid] {
		copied := *item
		items = append(items, &copied)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	return items, nil
}

func cloneProfile(p *model.UserProfile) *model.UserProfile {
	copied := *p
	if p.PhotoURL != nil {
		photoURL := *p.PhotoURL
		copied.PhotoURL = &photoURL
	}
	if p.Branding != nil {
		branding := *p.Branding
		if p.Branding.LogoURL != nil {
			logoURL := *p.Branding.LogoURL
			branding.LogoURL = &logoURL
		}
		copied.Branding = &branding
	}
	return &copied
}
