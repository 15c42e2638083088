package profile

import (
	"context"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type snapshot struct {
	revision  uint64
	branding  model.BrandingConfig
	name      string
	photoURL  string
	photoFile *model.LocalFile
	user      model.User
}

// Save persists the draft. Steps run in order and a failing step skips all
// later ones: photo upload, identity profile update (non-fatal), logo upload,
// profile document write. The document write commits the save; before it no
// persisted branding changes. On failure the edits are kept for a retry.
func (r *Reconciler) Save(ctx context.Context) (model.BrandingConfig, error) {
	if !r.inflight.TryLock() {
		return model.BrandingConfig{}, goerr.Wrap(ErrBusy, "cannot save profile")
	}
	defer r.inflight.Unlock()

	r.mu.Lock()
	snap := snapshot{
		revision:  r.revision,
		branding:  r.draft.Normalize(),
		name:      r.name,
		photoURL:  r.photoURL,
		photoFile: r.photoFile,
		user:      r.user,
	}
	r.state = StateSaving
	r.mu.Unlock()

	uid := snap.user.UID
	logger := logging.From(ctx).With("uid", uid)

	// 1. profile picture
	photoURL := snap.photoURL
	if snap.photoFile != nil {
		url, err := r.upload(ctx, model.ProfilePhotoPath(uid), snap.photoFile)
		if err != nil {
			return r.fail(ctx, StepPhotoUpload, err)
		}
		photoURL = url
	}

	// 2. identity profile, cosmetic only
	if snap.name != snap.user.DisplayName || photoURL != snap.user.PhotoURL {
		update := adapter.ProfileUpdate{DisplayName: snap.name, PhotoURL: photoURL}
		if err := r.identity.UpdateProfile(ctx, &snap.user, update); err != nil {
			logger.Warn("failed to update identity profile", logging.ErrAttr(err))
		} else {
			snap.user.DisplayName = snap.name
			snap.user.PhotoURL = photoURL
		}
	}

	// 3. logo
	resolved := snap.branding
	if resolved.LogoFile != nil {
		url, err := r.upload(ctx, model.BrandingLogoPath(uid), resolved.LogoFile)
		if err != nil {
			return r.fail(ctx, StepLogoUpload, err)
		}
		resolved.LogoURL = url
		resolved.LogoFile = nil
	}

	// 4. profile document
	profile := &model.UserProfile{
		UID:         uid,
		Email:       snap.user.Email,
		DisplayName: snap.name,
		Branding:    resolved.Record(),
	}
	if photoURL != "" {
		profile.PhotoURL = &photoURL
	}
	if err := r.repo.PutProfile(ctx, profile); err != nil {
		return r.fail(ctx, StepProfileWrite, err)
	}

	// 5. adopt
	observers := r.commit(snap, resolved, photoURL)
	adapter.Emit(ctx, r.events, model.NewEvent(model.EventProfileSave, uid, nil))
	logger.Info("profile saved", "position", resolved.Position, "opacity", resolved.Opacity, "logo", resolved.LogoURL != "")

	for _, fn := range observers {
		fn(resolved)
	}
	return resolved, nil
}

func (r *Reconciler) upload(ctx context.Context, path string, file *model.LocalFile) (string, error) {
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := r.storage.Upload(ctx, path, file.Data, contentType)
	adapter.Emit(ctx, r.events, model.NewEvent(model.EventImageUpload, r.User().UID, err))
	if err != nil {
		return "", err
	}

	url, err := r.storage.DownloadURL(ctx, path)
	if err != nil {
		return "", err
	}
	return url, nil
}

// commit adopts resolved as the saved config. Edits made while the save was
// in flight stay in the draft; the uploaded files are cleared only when the
// draft still refers to them.
func (r *Reconciler) commit(snap snapshot, resolved model.BrandingConfig, photoURL string) []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saved = resolved
	r.photoURL = photoURL
	r.user.DisplayName = snap.user.DisplayName
	r.user.PhotoURL = snap.user.PhotoURL
	r.lastErr = nil

	if r.revision == snap.revision {
		r.draft = resolved
		r.photoFile = nil
		r.state = StateLoaded
	} else {
		if r.draft.LogoFile != nil && r.draft.LogoFile == snap.branding.LogoFile {
			r.draft.LogoFile = nil
			r.draft.LogoURL = resolved.LogoURL
		}
		if r.photoFile == snap.photoFile {
			r.photoFile = nil
		}
		r.state = StateEditing
	}

	return append([]Observer(nil), r.observers...)
}

func (r *Reconciler) fail(ctx context.Context, step Step, cause error) (model.BrandingConfig, error) {
	err := newSaveError(step, adapter.IsPermissionDenied(cause), cause)

	r.mu.Lock()
	r.state = StateSaveFailed
	r.lastErr = err
	uid := r.user.UID
	r.mu.Unlock()

	adapter.Emit(ctx, r.events, model.NewEvent(model.EventProfileSave, uid, err))
	logging.From(ctx).Error("failed to save profile", logging.ErrAttr(err), "uid", uid, "step", step)
	return model.BrandingConfig{}, err
}
