package profile_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/adapter/testtools"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/usecase/profile"
	"github.com/m-mizutani/gt"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockRepository struct {
	*repository.Memory
	putErr  error
	entered chan struct{}
	release chan struct{}
}

func (m *mockRepository) PutProfile(ctx context.Context, p *model.UserProfile) error {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	if m.putErr != nil {
		return m.putErr
	}
	return m.Memory.PutProfile(ctx, p)
}

type fixture struct {
	repo     *mockRepository
	storage  *testtools.Storage
	identity *testtools.Identity
	events   *testtools.EventRecorder
	user     *model.User
}

func newFixture(t *testing.T) *fixture {
	identity := testtools.NewIdentity()
	return &fixture{
		repo:     &mockRepository{Memory: repository.NewMemory()},
		storage:  testtools.NewStorage(),
		identity: identity,
		events:   &testtools.EventRecorder{},
		user:     identity.AddUser("alice@example.com", "password", true),
	}
}

func (f *fixture) reconciler(t *testing.T) *profile.Reconciler {
	r, err := profile.New(profile.NewInput{
		Repo:     f.repo,
		Storage:  f.storage,
		Identity: f.identity,
		Events:   f.events,
		User:     f.user,
	})
	gt.NoError(t, err)
	return r
}

func (f *fixture) seedProfile(t *testing.T, branding *model.BrandingRecord) {
	gt.NoError(t, f.repo.Memory.PutProfile(context.Background(), &model.UserProfile{
		UID:         f.user.UID,
		Email:       f.user.Email,
		DisplayName: "Alice",
		Branding:    branding,
	}))
}

func logoFile() *model.LocalFile {
	return &model.LocalFile{Name: "logo.png", Data: []byte("logo-bytes"), MIMEType: "image/png"}
}

func TestNewRequiresVerifiedUser(t *testing.T) {
	_, err := profile.New(profile.NewInput{User: &model.User{UID: "u1"}})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, profile.ErrNotAuthenticated))
}

func TestLoadAbsentProfileKeepsDefaults(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler(t)
	gt.Equal(t, r.State(), profile.StateUnloaded)

	cfg, err := r.Load(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, cfg, model.DefaultBranding())
	gt.Equal(t, r.State(), profile.StateLoaded)
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	logoURL := "https://example.com/logo.png"
	f.seedProfile(t, &model.BrandingRecord{LogoURL: &logoURL, URL: "example.com", Position: model.LogoPositionBottomLeft})

	r := f.reconciler(t)
	first, err := r.Load(context.Background())
	gt.NoError(t, err)
	second, err := r.Load(context.Background())
	gt.NoError(t, err)

	gt.Equal(t, first, second)
	gt.Equal(t, first.Opacity, 80)
	gt.Equal(t, first.Position, model.LogoPositionBottomLeft)
	gt.Nil(t, first.LogoFile)
	gt.Equal(t, r.DisplayName(), "Alice")
}

func TestLoadDiscardsEdits(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler(t)
	ctx := context.Background()

	_, err := r.Load(ctx)
	gt.NoError(t, err)
	r.SetCaption("draft")
	gt.Equal(t, r.State(), profile.StateEditing)

	cfg, err := r.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, cfg.Caption, "")
	gt.Equal(t, r.State(), profile.StateLoaded)
}

func TestEditsCoalesce(t *testing.T) {
	f := newFixture(t)
	r := f.reconciler(t)
	_, err := r.Load(context.Background())
	gt.NoError(t, err)

	r.SetCaption("example.com")
	r.SetPosition("somewhere")
	r.SetOpacity(5)
	r.SetOpacity(45)

	cfg := r.Branding()
	gt.Equal(t, cfg.Caption, "example.com")
	gt.Equal(t, cfg.Position, model.LogoPositionBottomRight)
	gt.Equal(t, cfg.Opacity, 45)

	// nothing persisted
	stored, err := f.repo.GetProfile(context.Background(), f.user.UID)
	gt.NoError(t, err)
	gt.Nil(t, stored)
}

func TestSaveRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	var observed []model.BrandingConfig
	r.Subscribe(func(cfg model.BrandingConfig) { observed = append(observed, cfg) })

	r.SetLogoFile(logoFile())
	r.SetCaption("example.com")
	r.SetPosition(model.LogoPositionBottomLeft)
	r.SetOpacity(45)

	saved, err := r.Save(ctx)
	gt.NoError(t, err)
	gt.Nil(t, saved.LogoFile)
	gt.S(t, saved.LogoURL).Contains("branding_logos%2F" + string(f.user.UID))
	gt.Equal(t, r.State(), profile.StateLoaded)
	gt.Nil(t, r.Branding().LogoFile)

	data, contentType, ok := f.storage.Object(model.BrandingLogoPath(f.user.UID))
	gt.True(t, ok)
	gt.Equal(t, string(data), "logo-bytes")
	gt.Equal(t, contentType, "image/png")

	gt.A(t, observed).Length(1)
	gt.Equal(t, observed[0], saved)

	reloaded, err := f.reconciler(t).Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, reloaded, saved)
	gt.Equal(t, reloaded.Caption, "example.com")
	gt.Equal(t, reloaded.Position, model.LogoPositionBottomLeft)
	gt.Equal(t, reloaded.Opacity, 45)

	gt.A(t, f.events.Of(model.EventProfileSave)).Length(1)
	gt.True(t, f.events.Of(model.EventProfileSave)[0].Succeeded)
}

func TestSaveWritesNormalizedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	_, err = r.Save(ctx)
	gt.NoError(t, err)

	stored, err := f.repo.GetProfile(ctx, f.user.UID)
	gt.NoError(t, err)
	gt.NotNil(t, stored.Branding)
	gt.Nil(t, stored.Branding.LogoURL)
	gt.Equal(t, stored.Branding.URL, "")
	gt.Equal(t, stored.Branding.Position, model.LogoPositionBottomRight)
	gt.Equal(t, stored.Branding.Opacity, 80)
	gt.Nil(t, stored.PhotoURL)
	gt.Equal(t, stored.Email, "alice@example.com")
}

func TestSaveLogoUploadPermissionDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logoURL := "https://example.com/old-logo.png"
	f.seedProfile(t, &model.BrandingRecord{LogoURL: &logoURL, URL: "old.example.com", Position: model.LogoPositionBottomRight, Opacity: 70})
	before, err := f.repo.GetProfile(ctx, f.user.UID)
	gt.NoError(t, err)

	f.storage.FailUpload("branding_logos/", &googleapi.Error{Code: http.StatusForbidden})

	r := f.reconciler(t)
	_, err = r.Load(ctx)
	gt.NoError(t, err)

	observed := 0
	r.Subscribe(func(model.BrandingConfig) { observed++ })

	pending := logoFile()
	r.SetLogoFile(pending)
	r.SetCaption("new.example.com")

	_, err = r.Save(ctx)
	gt.Error(t, err)

	var saveErr *profile.SaveError
	gt.True(t, errors.As(err, &saveErr))
	gt.Equal(t, saveErr.Step, profile.StepLogoUpload)
	gt.True(t, saveErr.PermissionDenied)
	gt.Equal(t, profile.Message(err), "Permission denied: Cannot upload logo.")

	after, err := f.repo.GetProfile(ctx, f.user.UID)
	gt.NoError(t, err)
	gt.Equal(t, after, before)

	gt.Equal(t, r.State(), profile.StateSaveFailed)
	gt.Equal(t, r.Branding().LogoFile, pending)
	gt.Equal(t, r.Branding().Caption, "new.example.com")
	gt.Equal(t, r.Saved().LogoURL, logoURL)
	gt.Equal(t, observed, 0)
	gt.Error(t, r.Err())
}

func TestSavePhotoUploadFailureAbortsBeforeIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.storage.FailUpload("profile_pics/", errors.New("network down"))

	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	r.SetDisplayName("Alice B")
	r.SetPhotoFile(&model.LocalFile{Data: []byte("photo"), MIMEType: "image/jpeg"})
	r.SetLogoFile(logoFile())

	_, err = r.Save(ctx)
	gt.Error(t, err)
	gt.Equal(t, profile.Message(err), "Failed to upload profile picture.")
	gt.A(t, f.identity.Updates).Length(0)
	gt.A(t, f.storage.Uploads()).Length(1)

	stored, err := f.repo.GetProfile(ctx, f.user.UID)
	gt.NoError(t, err)
	gt.Nil(t, stored)
}

func TestSaveIdentityFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.identity.UpdateErr = errors.New("identity unavailable")

	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)
	r.SetDisplayName("Alice B")
	r.SetPhotoFile(&model.LocalFile{Data: []byte("photo"), MIMEType: "image/jpeg"})

	_, err = r.Save(ctx)
	gt.NoError(t, err)
	gt.A(t, f.identity.Updates).Length(1)

	stored, err := f.repo.GetProfile(ctx, f.user.UID)
	gt.NoError(t, err)
	gt.Equal(t, stored.DisplayName, "Alice B")
	gt.NotNil(t, stored.PhotoURL)
	gt.S(t, *stored.PhotoURL).Contains("profile_pics%2F")
	gt.Equal(t, r.User().DisplayName, "")
}

func TestSaveIdentityUpdatedOnlyWhenChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	r.SetDisplayName("Alice B")
	_, err = r.Save(ctx)
	gt.NoError(t, err)
	gt.A(t, f.identity.Updates).Length(1)
	gt.Equal(t, r.User().DisplayName, "Alice B")

	r.SetCaption("example.com")
	_, err = r.Save(ctx)
	gt.NoError(t, err)
	gt.A(t, f.identity.Updates).Length(1)
}

func TestSaveDocumentWriteFailureKeepsEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.putErr = status.Error(codes.PermissionDenied, "missing or insufficient permissions")

	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	pending := logoFile()
	r.SetLogoFile(pending)
	r.SetOpacity(30)

	_, err = r.Save(ctx)
	gt.Error(t, err)
	gt.Equal(t, profile.Message(err), "Database permission denied.")
	gt.Equal(t, r.State(), profile.StateSaveFailed)
	gt.Equal(t, r.Branding().LogoFile, pending)
	gt.Equal(t, r.Branding().Opacity, 30)
	gt.Equal(t, r.Saved(), model.DefaultBranding())

	// retry after the store recovers
	f.repo.putErr = nil
	saved, err := r.Save(ctx)
	gt.NoError(t, err)
	gt.Equal(t, saved.Opacity, 30)
	gt.Equal(t, r.State(), profile.StateLoaded)
}

func TestSaveGenericDocumentFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.putErr = errors.New("deadline exceeded")

	r := f.reconciler(t)
	_, err := r.Save(context.Background())
	gt.Error(t, err)
	gt.Equal(t, profile.Message(err), "Failed to save settings to database.")
}

func TestSaveConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reconciler(t)
	_, err := r.Load(ctx)
	gt.NoError(t, err)

	f.repo.entered = make(chan struct{})
	f.repo.release = make(chan struct{})

	pending := logoFile()
	r.SetLogoFile(pending)

	type result struct {
		cfg model.BrandingConfig
		err error
	}
	done := make(chan result)
	go func() {
		cfg, err := r.Save(ctx)
		done <- result{cfg, err}
	}()

	<-f.repo.entered
	gt.Equal(t, r.State(), profile.StateSaving)

	_, err = r.Save(ctx)
	gt.True(t, errors.Is(err, profile.ErrBusy))

	// edit while the write is in flight
	r.SetCaption("edited during save")
	close(f.repo.release)

	res := <-done
	gt.NoError(t, res.err)
	gt.Equal(t, res.cfg.Caption, "")

	cfg := r.Branding()
	gt.Equal(t, r.State(), profile.StateEditing)
	gt.Equal(t, cfg.Caption, "edited during save")
	gt.Nil(t, cfg.LogoFile)
	gt.Equal(t, cfg.LogoURL, res.cfg.LogoURL)
}
