package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const temporaryHistoryIDPrefix = "tmp-"

type HistoryID string

// NewTemporaryHistoryID generates a client-side id used until the store assigns one
func NewTemporaryHistoryID() HistoryID {
	return HistoryID(temporaryHistoryIDPrefix + uuid.New().String())
}

// IsTemporary reports whether the id was never confirmed by the store
func (id HistoryID) IsTemporary() bool {
	return strings.HasPrefix(string(id), temporaryHistoryIDPrefix)
}

// HistoryItem is one generation event. Timestamp is milliseconds since epoch
// and orders the ledger, newest first.
type HistoryItem struct {
	// ID is the document ID, not stored as a field
	ID        HistoryID      `firestore:"-"`
	Timestamp int64          `firestore:"timestamp"`
	Idea      string         `firestore:"idea"`
	Content   ContentPackage `firestore:"content"`
	ImageURL  *string        `firestore:"imageUrl"`
}

// CreatedAt returns Timestamp as time.Time
func (h *HistoryItem) CreatedAt() time.Time {
	return time.UnixMilli(h.Timestamp)
}

// Image returns the image URL or an empty string
func (h *HistoryItem) Image() string {
	if h.ImageURL == nil {
		return ""
	}
	return *h.ImageURL
}
