package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionUsers   = "users"
	collectionHistory = "history"
)

// Firestore implements Repository with Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a Firestore repository on the given database
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close closes the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) userDoc(uid model.UserID) *firestore.DocumentRef {
	return r.client.Collection(collectionUsers).Doc(string(uid))
}

func (r *Firestore) historyCollection(uid model.UserID) *firestore.CollectionRef {
	return r.userDoc(uid).Collection(collectionHistory)
}

func (r *Firestore) GetProfile(ctx context.Context, uid model.UserID) (*model.UserProfile, error) {
	doc, err := r.userDoc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("uid", uid))
	}

	var profile model.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("uid", uid))
	}
	return &profile, nil
}

func (r *Firestore) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	if profile.UID == "" {
		return goerr.New("profile uid is empty")
	}

	// MergeAll only accepts map data
	if _, err := r.userDoc(profile.UID).Set(ctx, profileFields(profile), firestore.MergeAll); err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("uid", profile.UID))
	}
	return nil
}

// profileFields converts a profile to the map written with merge semantics.
// Nil pointers become explicit nulls so the stored document has no unset fields.
func profileFields(p *model.UserProfile) map[string]any {
	fields := map[string]any{
		"uid":         string(p.UID),
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    nullable(p.PhotoURL),
	}
	if p.Branding != nil {
		fields["branding"] = map[string]any{
			"logoUrl":  nullable(p.Branding.LogoURL),
			"url":      p.Branding.URL,
			"position": string(p.Branding.Position),
			"opacity":  p.Branding.Opacity,
		}
	}
	return fields
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (r *Firestore) AddHistory(ctx context.Context, uid model.UserID, item *model.HistoryItem) (model.HistoryID, error) {
	ref, _, err := r.historyCollection(uid).Add(ctx, item)
	if err != nil {
		return "", goerr.Wrap(err, "failed to add history", goerr.V("uid", uid))
	}
	return model.HistoryID(ref.ID), nil
}

func (r *Firestore) DeleteHistory(ctx context.Context, uid model.UserID, id model.HistoryID) error {
	if _, err := r.historyCollection(uid).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete history", goerr.V("uid", uid), goerr.V("history_id", id))
	}
	return nil
}

func (r *Firestore) ListHistory(ctx context.Context, uid model.UserID) ([]*model.HistoryItem, error) {
	iter := r.historyCollection(uid).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var items []*model.HistoryItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate history", goerr.V("uid", uid))
		}

		var item model.HistoryItem
		if err := doc.DataTo(&item); err != nil {
			return nil, goerr.Wrap(err, "failed to decode history", goerr.V("history_id", doc.Ref.ID))
		}
		item.ID = model.HistoryID(doc.Ref.ID)
		items = append(items, &item)
	}

	return items, nil
}
