package cli

import (
	"context"

	"github.com/m-mizutani/alchemy/pkg/usecase/auth"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/alchemy/pkg/usecase/session"
)

// sessionOptions selects the optional parts of a session
type sessionOptions struct {
	generator bool
	progress  func(generation.Stage)
}

// startSession signs in and loads the branding and history of the account
func (cfg *config) startSession(ctx context.Context, opts sessionOptions) (*session.Session, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	identity, err := cfg.newIdentity(ctx)
	if err != nil {
		return nil, err
	}
	events, err := cfg.newEventSink(ctx)
	if err != nil {
		return nil, err
	}

	var generator generation.Generator
	if opts.generator {
		if generator, err = cfg.newGenerator(ctx); err != nil {
			return nil, err
		}
	}

	user, err := cfg.signIn(ctx, auth.New(identity, storage), false)
	if err != nil {
		return nil, err
	}

	return session.Start(ctx, session.StartInput{
		Repo:      repo,
		Storage:   storage,
		Identity:  identity,
		Generator: generator,
		Events:    events,
		User:      user,
		Progress:  opts.progress,
	})
}
