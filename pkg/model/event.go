package model

import (
	"time"
)

type EventType string

const (
	EventGeneration    EventType = "generation"
	EventHistoryLoad   EventType = "history_load"
	EventHistoryDelete EventType = "history_delete"
	EventImageUpload   EventType = "image_upload"
	EventProfileSave   EventType = "profile_save"
)

// Event is a row in the analytics table
type Event struct {
	Type      EventType `bigquery:"type"`
	UserID    string    `bigquery:"user_id"`
	Succeeded bool      `bigquery:"succeeded"`
	Error     string    `bigquery:"error"`
	Detail    string    `bigquery:"detail"`
	CreatedAt time.Time `bigquery:"created_at"`
}

// NewEvent builds an event for uid; a non-nil err marks it failed
func NewEvent(typ EventType, uid UserID, err error) *Event {
	ev := &Event{
		Type:      typ,
		UserID:    string(uid),
		Succeeded: err == nil,
		CreatedAt: time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
