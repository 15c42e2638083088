package auth

import (
	"errors"

	"github.com/m-mizutani/alchemy/pkg/model"
)

var signInMessages = map[string]string{
	model.AuthCodeEmailAlreadyInUse: "Email already in use.",
	model.AuthCodeInvalidEmail:      "Invalid email address.",
	model.AuthCodeWeakPassword:      "Password should be at least 6 characters.",
	model.AuthCodeWrongPassword:     "Invalid password.",
	model.AuthCodeUserNotFound:      "User not found.",
	model.AuthCodeInvalidCredential: "Invalid credentials.",
	model.AuthCodeTooManyRequests:   "Too many failed attempts. Please try again later.",
}

// Message returns the user-facing text of a sign up or sign in error
func Message(err error) string {
	if errors.Is(err, ErrEmailNotVerified) {
		return "Please verify your email address before logging in."
	}
	if msg, ok := signInMessages[model.AuthErrorCode(err)]; ok {
		return msg
	}
	return "An error occurred."
}

// ResetMessage returns the user-facing text of a SendPasswordReset error
func ResetMessage(err error) string {
	switch model.AuthErrorCode(err) {
	case model.AuthCodeUserNotFound:
		return "No user found with this email."
	case model.AuthCodeInvalidEmail:
		return "Invalid email address."
	default:
		return "Failed to send reset email."
	}
}

const (
	ResetLinkSentMessage    = "Password reset link sent! Check your email."
	VerificationSentMessage = "Verification email sent. Check your inbox and verify your address before signing in."
)
