package profile

import (
	"context"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Observer receives the branding adopted by a successful save
type Observer func(model.BrandingConfig)

// Reconciler owns the branding record of one signed-in user. Edits coalesce
// into a draft that is persisted only by Save.
type Reconciler struct {
	repo     repository.Repository
	storage  adapter.Storage
	identity adapter.Identity
	events   adapter.EventSink

	// inflight serializes Save; mu guards the fields below
	inflight sync.Mutex
	mu       sync.Mutex

	user      model.User
	state     State
	lastErr   error
	revision  uint64
	saved     model.BrandingConfig
	draft     model.BrandingConfig
	name      string
	photoURL  string
	photoFile *model.LocalFile
	observers []Observer
}

// NewInput contains the collaborators of a Reconciler
type NewInput struct {
	Repo     repository.Repository
	Storage  adapter.Storage
	Identity adapter.Identity
	Events   adapter.EventSink
	User     *model.User
}

func New(input NewInput) (*Reconciler, error) {
	if !input.User.Authenticated() {
		return nil, goerr.Wrap(ErrNotAuthenticated, "cannot manage profile")
	}

	events := input.Events
	if events == nil {
		events = adapter.NopEventSink()
	}

	return &Reconciler{
		repo:     input.Repo,
		storage:  input.Storage,
		identity: input.Identity,
		events:   events,
		user:     *input.User,
		state:    StateUnloaded,
		saved:    model.DefaultBranding(),
		draft:    model.DefaultBranding(),
		name:     input.User.DisplayName,
		photoURL: input.User.PhotoURL,
	}, nil
}

// Subscribe registers fn to be called after every successful save
func (r *Reconciler) Subscribe(fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Load reads the persisted profile and discards any edits. An absent profile
// keeps the defaults. A read failure keeps the current config and is returned.
func (r *Reconciler) Load(ctx context.Context) (model.BrandingConfig, error) {
	r.mu.Lock()
	r.state = StateLoading
	r.mu.Unlock()

	profile, err := r.repo.GetProfile(ctx, r.user.UID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateLoaded
	if err != nil {
		return r.draft, goerr.Wrap(err, "failed to load profile", goerr.V("uid", r.user.UID))
	}

	r.revision++
	r.photoFile = nil
	r.lastErr = nil
	if profile == nil {
		r.saved = model.DefaultBranding()
		r.draft = r.saved
		return r.draft, nil
	}

	r.saved = model.BrandingFromRecord(profile.Branding)
	r.draft = r.saved
	if profile.DisplayName != "" {
		r.name = profile.DisplayName
	}
	if profile.PhotoURL != nil {
		r.photoURL = *profile.PhotoURL
	}

	logging.From(ctx).Debug("profile loaded", "uid", r.user.UID, "position", r.saved.Position, "opacity", r.saved.Opacity)
	return r.draft, nil
}

func (r *Reconciler) edit(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn()
	r.revision++
	if r.state != StateSaving {
		r.state = StateEditing
	}
}

// SetLogoFile selects a logo that is uploaded on the next save
func (r *Reconciler) SetLogoFile(file *model.LocalFile) {
	r.edit(func() { r.draft.LogoFile = file })
}

// ClearLogo removes both the pending file and the stored logo URL
func (r *Reconciler) ClearLogo() {
	r.edit(func() {
		r.draft.LogoFile = nil
		r.draft.LogoURL = ""
	})
}

func (r *Reconciler) SetCaption(caption string) {
	r.edit(func() { r.draft.Caption = caption })
}

func (r *Reconciler) SetPosition(position model.LogoPosition) {
	r.edit(func() { r.draft.Position = position.Normalize() })
}

// SetOpacity sets the opacity percentage, clamped to the allowed range
func (r *Reconciler) SetOpacity(percent int) {
	r.edit(func() { r.draft.Opacity = model.ClampOpacity(percent) })
}

func (r *Reconciler) SetDisplayName(name string) {
	r.edit(func() { r.name = name })
}

// SetPhotoFile selects a profile picture that is uploaded on the next save
func (r *Reconciler) SetPhotoFile(file *model.LocalFile) {
	r.edit(func() { r.photoFile = file })
}

// Branding returns the current config including unsaved edits
func (r *Reconciler) Branding() model.BrandingConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// Saved returns the config as last loaded or persisted
func (r *Reconciler) Saved() model.BrandingConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error of the last failed save, if the reconciler is in StateSaveFailed
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Reconciler) DisplayName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

func (r *Reconciler) PhotoURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.photoURL
}

// User returns the user handle with identity fields updated by saves
func (r *Reconciler) User() model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}
