package session

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/usecase/compositor"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/alchemy/pkg/usecase/history"
	"github.com/m-mizutani/alchemy/pkg/usecase/profile"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNotAuthenticated = errors.New("email is not verified")
	ErrClosed           = errors.New("session is closed")
	ErrHistoryNotFound  = errors.New("history item not found")
)

// Session is the state of one signed-in user: branding, history and the
// current generation. It exists from a verified sign-in until Close.
type Session struct {
	user       model.User
	ledger     *history.Ledger
	profile    *profile.Reconciler
	generation *generation.Orchestrator

	mu       sync.Mutex
	closed   bool
	branding model.BrandingConfig
	current  *history.Selection
}

// StartInput contains the collaborators of a session
type StartInput struct {
	Repo      repository.Repository
	Storage   adapter.Storage
	Identity  adapter.Identity
	Generator generation.Generator
	Events    adapter.EventSink
	User      *model.User
	Progress  func(generation.Stage)
}

// Start builds the session of a verified user and loads its branding and
// history. Load failures degrade to defaults and an empty history.
func Start(ctx context.Context, input StartInput) (*Session, error) {
	if !input.User.Authenticated() {
		return nil, goerr.Wrap(ErrNotAuthenticated, "cannot start session")
	}

	user := *input.User
	logger := logging.From(ctx).With("uid", user.UID)

	reconciler, err := profile.New(profile.NewInput{
		Repo:     input.Repo,
		Storage:  input.Storage,
		Identity: input.Identity,
		Events:   input.Events,
		User:     &user,
	})
	if err != nil {
		return nil, err
	}

	ledger := history.New(input.Repo, user.UID, history.WithEventSink(input.Events))

	s := &Session{
		user:    user,
		ledger:  ledger,
		profile: reconciler,
		generation: generation.New(generation.NewInput{
			Generator: input.Generator,
			Storage:   input.Storage,
			Ledger:    ledger,
			Events:    input.Events,
			User:      &user,
			Progress:  input.Progress,
		}),
		branding: model.DefaultBranding(),
	}
	reconciler.Subscribe(s.setBranding)

	branding, err := reconciler.Load(ctx)
	if err != nil {
		logger.Error("failed to load branding, using defaults", logging.ErrAttr(err))
	}
	s.setBranding(branding)

	items := ledger.Load(ctx)
	logger.Info("session started", "history", len(items))
	return s, nil
}

func (s *Session) setBranding(cfg model.BrandingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branding = cfg.Normalize()
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) User() model.User {
	return s.user
}

// Branding returns the branding applied to composites in this session
func (s *Session) Branding() model.BrandingConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branding
}

// Profile returns the reconciler editing this user's branding
func (s *Session) Profile() *profile.Reconciler {
	return s.profile
}

// History returns the ledger, newest first
func (s *Session) History() []model.HistoryItem {
	return s.ledger.Items()
}

// Current returns the generation being shown, if any
func (s *Session) Current() (history.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return history.Selection{}, false
	}
	return *s.current, true
}

// Generate runs a generation. The current selection changes only when it succeeds.
func (s *Session) Generate(ctx context.Context, idea string) (*generation.Result, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	result, err := s.generation.Generate(ctx, idea)
	if err != nil {
		return nil, err
	}

	sel := history.Restore(result.Item)
	s.mu.Lock()
	s.current = &sel
	s.mu.Unlock()
	return result, nil
}

// Restore makes a history item the current selection
func (s *Session) Restore(id model.HistoryID) (history.Selection, error) {
	if err := s.check(); err != nil {
		return history.Selection{}, err
	}

	item, ok := s.ledger.Get(id)
	if !ok {
		return history.Selection{}, goerr.Wrap(ErrHistoryNotFound, "cannot restore", goerr.V("id", id))
	}

	sel := history.Restore(item)
	s.mu.Lock()
	s.current = &sel
	s.mu.Unlock()
	return sel, nil
}

// Delete removes a history item. The current selection is left as is.
func (s *Session) Delete(ctx context.Context, id model.HistoryID) error {
	if err := s.check(); err != nil {
		return err
	}
	if !s.ledger.Remove(ctx, id) {
		return goerr.Wrap(ErrHistoryNotFound, "cannot delete", goerr.V("id", id))
	}
	return nil
}

// Composite lays out the current image with the session branding
func (s *Session) Composite() (*compositor.Layout, bool) {
	sel, ok := s.Current()
	if !ok || sel.ImageURL == "" {
		return nil, false
	}
	return compositor.Compose(sel.ImageURL, s.Branding()), true
}

// Preview lays out imageURL with the unsaved branding draft of the profile
func (s *Session) Preview(imageURL string) *compositor.Layout {
	return compositor.Compose(imageURL, s.profile.Branding())
}

// Close tears down the session state. Every later call returns ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.current = nil
	s.branding = model.DefaultBranding()
}
