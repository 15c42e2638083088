package repository

import (
	"context"

	"github.com/m-mizutani/alchemy/pkg/model"
)

// Repository defines the interface for the per-user document store
type Repository interface {
	// GetProfile retrieves users/{uid}. It returns nil without error when the document does not exist
	GetProfile(ctx context.Context, uid model.UserID) (*model.UserProfile, error)

	// PutProfile upserts users/{uid} with merge semantics
	PutProfile(ctx context.Context, profile *model.UserProfile) error

	// AddHistory creates a history entry and returns the store-assigned ID. item.ID is ignored
	AddHistory(ctx context.Context, uid model.UserID, item *model.HistoryItem) (model.HistoryID, error)

	// DeleteHistory removes users/{uid}/history/{id}
	DeleteHistory(ctx context.Context, uid model.UserID, id model.HistoryID) error

	// ListHistory retrieves all history entries of uid ordered by timestamp descending
	ListHistory(ctx context.Context, uid model.UserID) ([]*model.HistoryItem, error)
}
