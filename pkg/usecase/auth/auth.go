package auth

import (
	"context"
	"errors"
	"net/mail"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// MinPasswordLength is the shortest password accepted before calling the provider
const MinPasswordLength = 6

// GoogleProviderID is the provider of SignInWithProvider id tokens
const GoogleProviderID = "google.com"

// ErrEmailNotVerified is returned by SignIn for an account whose email is not
// verified yet. The returned user can still be passed to ResendVerification.
var ErrEmailNotVerified = errors.New("email is not verified")

// Service runs the account flows against the identity provider
type Service struct {
	identity adapter.Identity
	storage  adapter.Storage
}

func New(identity adapter.Identity, storage adapter.Storage) *Service {
	return &Service{
		identity: identity,
		storage:  storage,
	}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return goerr.Wrap(&model.AuthError{Code: model.AuthCodeInvalidEmail, Err: err}, "invalid email", goerr.V("email", email))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return goerr.Wrap(&model.AuthError{Code: model.AuthCodeWeakPassword}, "password too short")
	}
	return nil
}

// SignUpInput is a new account. Photo is optional.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
	Photo       *model.LocalFile
}

// SignUp creates the account, attaches the optional profile picture and sends
// the verification mail. The returned user is not verified. A failing photo
// upload does not fail the sign up.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	user, err := s.identity.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	logger := logging.From(ctx).With("uid", user.UID)

	update := adapter.ProfileUpdate{DisplayName: input.DisplayName}
	if input.Photo != nil && s.storage != nil {
		url, err := s.uploadPhoto(ctx, user.UID, input.Photo)
		if err != nil {
			logger.Warn("failed to upload profile picture during sign up", logging.ErrAttr(err))
		} else {
			update.PhotoURL = url
		}
	}
	if update.DisplayName != "" || update.PhotoURL != "" {
		if err := s.identity.UpdateProfile(ctx, user, update); err != nil {
			logger.Warn("failed to update profile during sign up", logging.ErrAttr(err))
		} else {
			user.DisplayName = update.DisplayName
			user.PhotoURL = update.PhotoURL
		}
	}

	if err := s.identity.SendVerificationEmail(ctx, user); err != nil {
		return user, err
	}

	logger.Info("signed up, verification mail sent", "email", user.Email)
	return user, nil
}

func (s *Service) uploadPhoto(ctx context.Context, uid model.UserID, photo *model.LocalFile) (string, error) {
	path := model.ProfilePhotoPath(uid)
	contentType := photo.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Upload(ctx, path, photo.Data, contentType); err != nil {
		return "", err
	}
	return s.storage.DownloadURL(ctx, path)
}

// SignIn authenticates with email and password. An unverified account
// returns the user together with ErrEmailNotVerified.
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return user, goerr.Wrap(ErrEmailNotVerified, "sign in rejected", goerr.V("uid", user.UID))
	}

	logging.From(ctx).Info("signed in", "uid", user.UID)
	return user, nil
}

// SignInWithProvider exchanges an id token of an identity provider such as
// Google. Provider accounts are verified by the provider.
func (s *Service) SignInWithProvider(ctx context.Context, providerID, idToken string) (*model.User, error) {
	if idToken == "" {
		return nil, goerr.Wrap(&model.AuthError{Code: model.AuthCodeInvalidCredential}, "id token is empty")
	}

	user, err := s.identity.SignInWithIDToken(ctx, providerID, idToken)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return user, goerr.Wrap(ErrEmailNotVerified, "sign in rejected", goerr.V("uid", user.UID))
	}
	return user, nil
}

// ResendVerification sends the verification mail again
func (s *Service) ResendVerification(ctx context.Context, user *model.User) error {
	if user == nil || user.UID == "" {
		return goerr.New("no signed-in user to verify")
	}
	return s.identity.SendVerificationEmail(ctx, user)
}

// SendPasswordReset mails a password reset link
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.identity.SendPasswordReset(ctx, email)
}
