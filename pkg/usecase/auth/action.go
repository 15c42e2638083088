package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Action link modes
const (
	ModeVerifyEmail   = "verifyEmail"
	ModeResetPassword = "resetPassword"
)

var (
	ErrUnknownAction    = errors.New("unknown action mode")
	ErrMissingCode      = errors.New("action code is empty")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrResetCompleted   = errors.New("password reset already completed")
)

// Action is an action link: VerifyEmail or ResetPassword
type Action interface {
	Code() string
	action()
}

type VerifyEmail struct {
	code string
}

func (a VerifyEmail) Code() string { return a.code }
func (VerifyEmail) action()        {}

type ResetPassword struct {
	code string
}

func (a ResetPassword) Code() string { return a.code }
func (ResetPassword) action()        {}

// ParseAction builds an Action from the mode and oobCode query parameters of an action link
func ParseAction(mode, code string) (Action, error) {
	if code == "" {
		return nil, goerr.Wrap(ErrMissingCode, "invalid action link", goerr.V("mode", mode))
	}

	switch mode {
	case ModeVerifyEmail:
		return VerifyEmail{code: code}, nil
	case ModeResetPassword:
		return ResetPassword{code: code}, nil
	default:
		return nil, goerr.Wrap(ErrUnknownAction, "invalid action link", goerr.V("mode", mode))
	}
}

const (
	VerifiedMessage            = "Your email has been verified. You can now access the full capabilities of the Timeline Alchemy."
	InvalidVerifyCodeMessage   = "The verification code is invalid or has expired."
	InvalidResetCodeMessage    = "The password reset link is invalid or has expired."
	PasswordTooShortMessage    = "Password must be at least 6 characters."
	PasswordResetMessage       = "Your password has been successfully reset. You may now sign in."
	PasswordResetFailedMessage = "Failed to reset password. Please try again."
)

// VerifyEmail consumes a verification code
func (s *Service) VerifyEmail(ctx context.Context, action VerifyEmail) error {
	if err := s.identity.ApplyActionCode(ctx, action.code); err != nil {
		return err
	}
	logging.From(ctx).Info("email verified")
	return nil
}

// PasswordReset is an accepted reset code waiting for the new password
type PasswordReset struct {
	identity adapter.Identity
	code     string
	email    string

	mu   sync.Mutex
	done bool
}

// BeginPasswordReset checks the code and returns the reset bound to its account
func (s *Service) BeginPasswordReset(ctx context.Context, action ResetPassword) (*PasswordReset, error) {
	email, err := s.identity.VerifyPasswordResetCode(ctx, action.code)
	if err != nil {
		return nil, err
	}
	return &PasswordReset{
		identity: s.identity,
		code:     action.code,
		email:    email,
	}, nil
}

// Email is the account the reset applies to
func (r *PasswordReset) Email() string {
	return r.email
}

// Confirm sets the new password. A short password is rejected without calling
// the provider and the reset can be confirmed again.
func (r *PasswordReset) Confirm(ctx context.Context, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return goerr.Wrap(ErrPasswordTooShort, "cannot reset password")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return goerr.Wrap(ErrResetCompleted, "cannot reset password")
	}

	if err := r.identity.ConfirmPasswordReset(ctx, r.code, newPassword); err != nil {
		return err
	}
	r.done = true
	logging.From(ctx).Info("password reset", "email", r.email)
	return nil
}
