package adapter

import (
	"context"
	"errors"
	"net/url"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// ProfileUpdate holds the identity profile fields that can be changed. An
// empty PhotoURL removes the photo.
type ProfileUpdate struct {
	DisplayName string
	PhotoURL    string
}

// Identity is the interface for the identity provider
type Identity interface {
	SignUp(ctx context.Context, email, password string) (*model.User, error)
	// SignIn authenticates with email and password and returns the user with its current verification state
	SignIn(ctx context.Context, email, password string) (*model.User, error)
	// SignInWithIDToken exchanges an OAuth ID token of providerID (e.g. "google.com")
	SignInWithIDToken(ctx context.Context, providerID, idToken string) (*model.User, error)
	// Reload fetches the latest user record, keeping the session tokens of user
	Reload(ctx context.Context, user *model.User) (*model.User, error)
	SendVerificationEmail(ctx context.Context, user *model.User) error
	SendPasswordReset(ctx context.Context, email string) error
	// ApplyActionCode consumes an email verification code
	ApplyActionCode(ctx context.Context, code string) error
	// VerifyPasswordResetCode checks a reset code and returns the account email
	VerifyPasswordResetCode(ctx context.Context, code string) (string, error)
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	UpdateProfile(ctx context.Context, user *model.User, update ProfileUpdate) error
}

// identityClient talks to Identity Toolkit with the web API key for end-user
// operations and to the Firebase Admin SDK for user records
type identityClient struct {
	toolkit *identitytoolkit.Service
	admin   *auth.Client
}

// NewIdentity creates a new identity provider client
func NewIdentity(ctx context.Context, projectID, apiKey string) (Identity, error) {
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity toolkit client")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firebase app", goerr.V("project", projectID))
	}

	admin, err := app.Auth(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firebase auth client")
	}

	return &identityClient{
		toolkit: toolkit,
		admin:   admin,
	}, nil
}

func (c *identityClient) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}
	resp, err := c.toolkit.Relyingparty.SignupNewUser(req).Context(ctx).Do()
	if err != nil {
		return nil, identityError(err, "failed to sign up")
	}

	return &model.User{
		UID:          model.UserID(resp.LocalId),
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (c *identityClient) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := c.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return nil, identityError(err, "failed to sign in")
	}

	// The password response has no verification state
	return c.Reload(ctx, &model.User{
		UID:          model.UserID(resp.LocalId),
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoUrl,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	})
}

func (c *identityClient) SignInWithIDToken(ctx context.Context, providerID, idToken string) (*model.User, error) {
	body := url.Values{}
	body.Set("id_token", idToken)
	body.Set("providerId", providerID)

	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}
	resp, err := c.toolkit.Relyingparty.VerifyAssertion(req).Context(ctx).Do()
	if err != nil {
		return nil, identityError(err, "failed to sign in with identity provider", goerr.V("provider", providerID))
	}

	return &model.User{
		UID:           model.UserID(resp.LocalId),
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoUrl,
		IDToken:       resp.IdToken,
		RefreshToken:  resp.RefreshToken,
	}, nil
}

func (c *identityClient) Reload(ctx context.Context, user *model.User) (*model.User, error) {
	rec, err := c.admin.GetUser(ctx, string(user.UID))
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, goerr.Wrap(&model.AuthError{Code: model.AuthCodeUserNotFound, Err: err}, "user record not found", goerr.V("uid", user.UID))
		}
		return nil, goerr.Wrap(err, "failed to get user record", goerr.V("uid", user.UID))
	}

	reloaded := *user
	reloaded.Email = rec.Email
	reloaded.EmailVerified = rec.EmailVerified
	reloaded.DisplayName = rec.DisplayName
	reloaded.PhotoURL = rec.PhotoURL
	return &reloaded, nil
}

func (c *identityClient) SendVerificationEmail(ctx context.Context, user *model.User) error {
	req := &identitytoolkit.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     user.IDToken,
	}
	if _, err := c.toolkit.Relyingparty.GetOobConfirmationCode(req).Context(ctx).Do(); err != nil {
		return identityError(err, "failed to send verification email", goerr.V("uid", user.UID))
	}
	return nil
}

func (c *identityClient) SendPasswordReset(ctx context.Context, email string) error {
	req := &identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}
	if _, err := c.toolkit.Relyingparty.GetOobConfirmationCode(req).Context(ctx).Do(); err != nil {
		return identityError(err, "failed to send password reset email")
	}
	return nil
}

func (c *identityClient) ApplyActionCode(ctx context.Context, code string) error {
	req := &identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		OobCode: code,
	}
	if _, err := c.toolkit.Relyingparty.SetAccountInfo(req).Context(ctx).Do(); err != nil {
		return identityError(err, "failed to apply action code")
	}
	return nil
}

func (c *identityClient) VerifyPasswordResetCode(ctx context.Context, code string) (string, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyResetPasswordRequest{
		OobCode: code,
	}
	resp, err := c.toolkit.Relyingparty.ResetPassword(req).Context(ctx).Do()
	if err != nil {
		return "", identityError(err, "failed to verify password reset code")
	}
	return resp.Email, nil
}

func (c *identityClient) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyResetPasswordRequest{
		OobCode:     code,
		NewPassword: newPassword,
	}
	if _, err := c.toolkit.Relyingparty.ResetPassword(req).Context(ctx).Do(); err != nil {
		return identityError(err, "failed to confirm password reset")
	}
	return nil
}

func (c *identityClient) UpdateProfile(ctx context.Context, user *model.User, update ProfileUpdate) error {
	params := (&auth.UserToUpdate{}).
		DisplayName(update.DisplayName).
		PhotoURL(update.PhotoURL)

	if _, err := c.admin.UpdateUser(ctx, string(user.UID), params); err != nil {
		return goerr.Wrap(err, "failed to update user profile", goerr.V("uid", user.UID))
	}
	return nil
}

// identityErrorCodes maps Identity Toolkit error reasons to provider codes
var identityErrorCodes = map[string]string{
	"EMAIL_EXISTS":                model.AuthCodeEmailAlreadyInUse,
	"INVALID_EMAIL":               model.AuthCodeInvalidEmail,
	"MISSING_EMAIL":               model.AuthCodeInvalidEmail,
	"WEAK_PASSWORD":               model.AuthCodeWeakPassword,
	"INVALID_PASSWORD":            model.AuthCodeWrongPassword,
	"EMAIL_NOT_FOUND":             model.AuthCodeUserNotFound,
	"USER_NOT_FOUND":              model.AuthCodeUserNotFound,
	"INVALID_LOGIN_CREDENTIALS":   model.AuthCodeInvalidCredential,
	"INVALID_IDP_RESPONSE":        model.AuthCodeInvalidCredential,
	"TOO_MANY_ATTEMPTS_TRY_LATER": model.AuthCodeTooManyRequests,
	"INVALID_OOB_CODE":            model.AuthCodeInvalidActionCode,
	"EXPIRED_OOB_CODE":            model.AuthCodeExpiredActionCode,
	"USER_DISABLED":               model.AuthCodeUserDisabled,
}

// IdentityErrorCode converts an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a provider code
func IdentityErrorCode(message string) string {
	reason, _, _ := strings.Cut(message, ":")
	if code, ok := identityErrorCodes[strings.TrimSpace(reason)]; ok {
		return code
	}
	return model.AuthCodeInternal
}

func identityError(err error, msg string, opts ...goerr.Option) error {
	code := model.AuthCodeInternal
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		code = IdentityErrorCode(apiErr.Message)
	}
	return goerr.Wrap(&model.AuthError{Code: code, Err: err}, msg, opts...)
}
