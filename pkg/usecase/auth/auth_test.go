package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/adapter/testtools"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/auth"
	"github.com/m-mizutani/gt"
)

func newService() (*auth.Service, *testtools.Identity, *testtools.Storage) {
	identity := testtools.NewIdentity()
	storage := testtools.NewStorage()
	return auth.New(identity, storage), identity, storage
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	svc, identity, storage := newService()

	user, err := svc.SignUp(ctx, auth.SignUpInput{
		Email:       "alice@example.com",
		Password:    "secret1",
		DisplayName: "Alice",
		Photo:       &model.LocalFile{Data: []byte("photo"), MIMEType: "image/jpeg"},
	})
	gt.NoError(t, err)
	gt.False(t, user.Authenticated())
	gt.Equal(t, user.DisplayName, "Alice")
	gt.S(t, user.PhotoURL).Contains("profile_pics%2F")

	_, _, ok := storage.Object(model.ProfilePhotoPath(user.UID))
	gt.True(t, ok)
	gt.NotEqual(t, identity.IssuedCode("alice@example.com", true), "")

	// sign in is refused until verified
	_, err = svc.SignIn(ctx, "alice@example.com", "secret1")
	gt.True(t, errors.Is(err, auth.ErrEmailNotVerified))
	gt.Equal(t, auth.Message(err), "Please verify your email address before logging in.")
}

func TestSignUpPhotoFailureIsNotFatal(t *testing.T) {
	svc, identity, storage := newService()
	storage.FailUpload("profile_pics/", errors.New("denied"))

	user, err := svc.SignUp(context.Background(), auth.SignUpInput{
		Email:    "alice@example.com",
		Password: "secret1",
		Photo:    &model.LocalFile{Data: []byte("photo")},
	})
	gt.NoError(t, err)
	gt.Equal(t, user.PhotoURL, "")
	gt.A(t, identity.Updates).Length(0)
	gt.NotEqual(t, identity.IssuedCode("alice@example.com", true), "")
}

func TestSignUpValidatesBeforeProvider(t *testing.T) {
	svc, identity, _ := newService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, auth.SignUpInput{Email: "alice@example.com", Password: "12345"})
	gt.Equal(t, model.AuthErrorCode(err), model.AuthCodeWeakPassword)
	gt.Equal(t, auth.Message(err), "Password should be at least 6 characters.")

	_, err = svc.SignUp(ctx, auth.SignUpInput{Email: "not-an-email", Password: "secret1"})
	gt.Equal(t, auth.Message(err), "Invalid email address.")

	_, ok := identity.Lookup("alice@example.com")
	gt.False(t, ok)
}

func TestSignUpEmailInUse(t *testing.T) {
	svc, identity, _ := newService()
	identity.AddUser("alice@example.com", "secret1", true)

	_, err := svc.SignUp(context.Background(), auth.SignUpInput{Email: "alice@example.com", Password: "secret1"})
	gt.Equal(t, auth.Message(err), "Email already in use.")
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc, identity, _ := newService()
	identity.AddUser("alice@example.com", "secret1", true)

	user, err := svc.SignIn(ctx, "alice@example.com", "secret1")
	gt.NoError(t, err)
	gt.True(t, user.Authenticated())

	testCases := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{"wrong password", "alice@example.com", "wrong-pass", "Invalid password."},
		{"unknown user", "bob@example.com", "secret1", "User not found."},
		{"invalid email", "bob", "secret1", "Invalid email address."},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignIn(ctx, tc.email, tc.password)
			gt.Error(t, err)
			gt.Equal(t, auth.Message(err), tc.message)
		})
	}
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	svc, identity, _ := newService()
	identity.AddUser("alice@example.com", "secret1", false)

	user, err := svc.SignIn(ctx, "alice@example.com", "secret1")
	gt.True(t, errors.Is(err, auth.ErrEmailNotVerified))
	gt.NotNil(t, user)

	gt.NoError(t, svc.ResendVerification(ctx, user))
	code := identity.IssuedCode("alice@example.com", true)
	gt.NotEqual(t, code, "")

	gt.Error(t, svc.ResendVerification(ctx, nil))
}

func TestSignInWithProvider(t *testing.T) {
	ctx := context.Background()
	svc, identity, _ := newService()
	identity.AddIDToken("google-token", "carol@example.com")

	user, err := svc.SignInWithProvider(ctx, auth.GoogleProviderID, "google-token")
	gt.NoError(t, err)
	gt.True(t, user.Authenticated())

	_, err = svc.SignInWithProvider(ctx, auth.GoogleProviderID, "forged")
	gt.Equal(t, auth.Message(err), "Invalid credentials.")

	_, err = svc.SignInWithProvider(ctx, auth.GoogleProviderID, "")
	gt.Equal(t, auth.Message(err), "Invalid credentials.")
}

func TestSendPasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, identity, _ := newService()
	identity.AddUser("alice@example.com", "secret1", true)

	gt.NoError(t, svc.SendPasswordReset(ctx, "alice@example.com"))
	gt.NotEqual(t, identity.IssuedCode("alice@example.com", false), "")

	err := svc.SendPasswordReset(ctx, "bob@example.com")
	gt.Equal(t, auth.ResetMessage(err), "No user found with this email.")

	err = svc.SendPasswordReset(ctx, "")
	gt.Equal(t, auth.ResetMessage(err), "Invalid email address.")

	gt.Equal(t, auth.ResetMessage(errors.New("network")), "Failed to send reset email.")
}

func TestMessageFallback(t *testing.T) {
	gt.Equal(t, auth.Message(errors.New("boom")), "An error occurred.")
	gt.Equal(t, auth.Message(&model.AuthError{Code: model.AuthCodeTooManyRequests}),
		"Too many failed attempts. Please try again later.")
}
