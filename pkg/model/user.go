package model

import (
	"errors"
	"strings"
)

// User is the handle returned by the identity provider
type User struct {
	UID           UserID
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string

	IDToken      string
	RefreshToken string
}

// Authenticated reports whether the user may use the application. A signed-in
// but unverified user is treated as unauthenticated.
func (u *User) Authenticated() bool {
	return u != nil && u.UID != "" && u.EmailVerified
}

// Name returns the display name, or the local part of the email
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	name, _, _ := strings.Cut(u.Email, "@")
	return name
}

// Provider error codes, named as the Firebase web SDK names them
const (
	AuthCodeEmailAlreadyInUse = "auth/email-already-in-use"
	AuthCodeInvalidEmail      = "auth/invalid-email"
	AuthCodeWeakPassword      = "auth/weak-password"
	AuthCodeWrongPassword     = "auth/wrong-password"
	AuthCodeUserNotFound      = "auth/user-not-found"
	AuthCodeInvalidCredential = "auth/invalid-credential"
	AuthCodeTooManyRequests   = "auth/too-many-requests"
	AuthCodeInvalidActionCode = "auth/invalid-action-code"
	AuthCodeExpiredActionCode = "auth/expired-action-code"
	AuthCodeUserDisabled      = "auth/user-disabled"
	AuthCodeInternal          = "auth/internal-error"
)

// AuthError is an identity provider failure carrying a provider code
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthErrorCode extracts the provider code from err, or returns an empty string
func AuthErrorCode(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
