package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/adapter/testtools"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/usecase/compositor"
	"github.com/m-mizutani/alchemy/pkg/usecase/session"
	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/gt"
)

type mockGenerator struct {
	fail bool
}

func (m *mockGenerator) GenerateContent(ctx context.Context, idea string) (*model.ContentPackage, error) {
	if m.fail {
		return nil, errors.New("generation failed")
	}
	return &model.ContentPackage{
		BlogTitle: idea, BlogContent: idea, ImagePrompt: idea, FacebookPost: idea, InstagramPost: idea,
		TwitterPost: idea, LinkedinPost: idea, TelegramPost: idea, DiscordPost: idea, RedditPost: idea,
	}, nil
}

func (m *mockGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return dataurl.Encode("image/jpeg", []byte(prompt)), nil
}

type failingRepo struct {
	*repository.Memory
}

func (failingRepo) GetProfile(ctx context.Context, uid model.UserID) (*model.UserProfile, error) {
	return nil, errors.New("unavailable")
}

func (failingRepo) ListHistory(ctx context.Context, uid model.UserID) ([]*model.HistoryItem, error) {
	return nil, errors.New("unavailable")
}

type fixture struct {
	repo     repository.Repository
	storage  *testtools.Storage
	identity *testtools.Identity
	gen      *mockGenerator
	user     *model.User
}

func newFixture() *fixture {
	identity := testtools.NewIdentity()
	return &fixture{
		repo:     repository.NewMemory(),
		storage:  testtools.NewStorage(),
		identity: identity,
		gen:      &mockGenerator{},
		user:     identity.AddUser("alice@example.com", "password", true),
	}
}

func (f *fixture) start(t *testing.T) *session.Session {
	s, err := session.Start(context.Background(), session.StartInput{
		Repo:      f.repo,
		Storage:   f.storage,
		Identity:  f.identity,
		Generator: f.gen,
		User:      f.user,
	})
	gt.NoError(t, err)
	return s
}

func TestStartRequiresVerifiedUser(t *testing.T) {
	f := newFixture()
	f.user.EmailVerified = false

	_, err := session.Start(context.Background(), session.StartInput{Repo: f.repo, User: f.user})
	gt.True(t, errors.Is(err, session.ErrNotAuthenticated))

	_, err = session.Start(context.Background(), session.StartInput{Repo: f.repo})
	gt.True(t, errors.Is(err, session.ErrNotAuthenticated))
}

func TestStartLoadsBrandingAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	logoURL := "https://example.com/logo.png"
	gt.NoError(t, f.repo.PutProfile(ctx, &model.UserProfile{
		UID:      f.user.UID,
		Branding: &model.BrandingRecord{LogoURL: &logoURL, Position: model.LogoPositionBottomLeft, Opacity: 60},
	}))
	_, err := f.repo.AddHistory(ctx, f.user.UID, &model.HistoryItem{Timestamp: 1, Idea: "old"})
	gt.NoError(t, err)

	s := f.start(t)
	gt.Equal(t, s.Branding().LogoURL, logoURL)
	gt.Equal(t, s.Branding().Opacity, 60)
	gt.A(t, s.History()).Length(1)

	_, ok := s.Current()
	gt.False(t, ok)
	_, ok = s.Composite()
	gt.False(t, ok)
}

func TestStartDegradesOnLoadFailure(t *testing.T) {
	f := newFixture()
	f.repo = failingRepo{Memory: repository.NewMemory()}

	s := f.start(t)
	gt.Equal(t, s.Branding(), model.DefaultBranding())
	gt.A(t, s.History()).Length(0)
}

func TestGenerateUpdatesCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := f.start(t)

	result, err := s.Generate(ctx, "unity")
	gt.NoError(t, err)
	gt.True(t, result.Saved)

	sel, ok := s.Current()
	gt.True(t, ok)
	gt.Equal(t, sel.Idea, "unity")
	gt.Equal(t, sel.ImageURL, result.Item.Image())
	gt.A(t, s.History()).Length(1)

	layout, ok := s.Composite()
	gt.True(t, ok)
	gt.Equal(t, layout.BaseURL, result.Item.Image())
	gt.Equal(t, layout.Overlay.Opacity, 0.8)
}

func TestGenerateFailureKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := f.start(t)

	_, err := s.Generate(ctx, "unity")
	gt.NoError(t, err)
	before, _ := s.Current()

	f.gen.fail = true
	_, err = s.Generate(ctx, "duality")
	gt.Error(t, err)

	after, ok := s.Current()
	gt.True(t, ok)
	gt.Equal(t, after, before)
	gt.A(t, s.History()).Length(1)
}

func TestProfileSaveUpdatesSessionBranding(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := f.start(t)

	_, err := s.Generate(ctx, "unity")
	gt.NoError(t, err)

	p := s.Profile()
	p.SetPosition(model.LogoPositionBottomLeft)
	p.SetOpacity(45)
	p.SetLogoFile(&model.LocalFile{Data: []byte("logo"), MIMEType: "image/png"})

	// drafts are previewed but not applied
	preview := s.Preview("https://example.com/image.jpg")
	gt.Equal(t, preview.Overlay.Opacity, 0.45)
	gt.Equal(t, preview.Overlay.Logo.Source, model.LogoSourceLocal)
	layout, _ := s.Composite()
	gt.Equal(t, layout.Overlay.Anchor, compositor.AnchorBottomRight)

	_, err = p.Save(ctx)
	gt.NoError(t, err)

	layout, ok := s.Composite()
	gt.True(t, ok)
	gt.Equal(t, layout.Overlay.Anchor, compositor.AnchorBottomLeft)
	gt.Equal(t, layout.Overlay.Opacity, 0.45)
	gt.NotNil(t, layout.Overlay.Logo)
	gt.Equal(t, layout.Overlay.Logo.Source, model.LogoSourceRemote)
	gt.Nil(t, s.Branding().LogoFile)
}

func TestRestoreAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := f.start(t)

	first, err := s.Generate(ctx, "first")
	gt.NoError(t, err)
	_, err = s.Generate(ctx, "second")
	gt.NoError(t, err)

	sel, err := s.Restore(first.Item.ID)
	gt.NoError(t, err)
	gt.Equal(t, sel.Idea, "first")
	current, _ := s.Current()
	gt.Equal(t, current.Idea, "first")
	gt.A(t, s.History()).Length(2)

	gt.NoError(t, s.Delete(ctx, first.Item.ID))
	gt.A(t, s.History()).Length(1)
	gt.Equal(t, s.History()[0].Idea, "second")

	stored, err := f.repo.ListHistory(ctx, f.user.UID)
	gt.NoError(t, err)
	gt.A(t, stored).Length(1)

	_, err = s.Restore(first.Item.ID)
	gt.True(t, errors.Is(err, session.ErrHistoryNotFound))
	gt.True(t, errors.Is(s.Delete(ctx, first.Item.ID), session.ErrHistoryNotFound))
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := f.start(t)

	_, err := s.Generate(ctx, "unity")
	gt.NoError(t, err)

	s.Close()
	_, ok := s.Current()
	gt.False(t, ok)
	gt.Equal(t, s.Branding(), model.DefaultBranding())

	_, err = s.Generate(ctx, "again")
	gt.True(t, errors.Is(err, session.ErrClosed))
}
