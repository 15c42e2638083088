package testtools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

type account struct {
	user     model.User
	password string
}

type actionCode struct {
	verify bool
	email  string
}

// Identity is an in-memory adapter.Identity. Errors carry the same provider
// codes as the real one.
type Identity struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*account
	codes    map[string]actionCode
	idTokens map[string]string

	// UpdateErr fails UpdateProfile when set
	UpdateErr error
	Updates   []adapter.ProfileUpdate
}

var _ adapter.Identity = (*Identity)(nil)

func NewIdentity() *Identity {
	return &Identity{
		accounts: make(map[string]*account),
		codes:    make(map[string]actionCode),
		idTokens: make(map[string]string),
	}
}

func authError(code, msg string) error {
	return goerr.Wrap(&model.AuthError{Code: code}, msg)
}

// AddUser registers an account and returns its user handle
func (x *Identity) AddUser(email, password string, verified bool) *model.User {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.addUser(email, password, verified)
}

func (x *Identity) addUser(email, password string, verified bool) *model.User {
	x.seq++
	acct := &account{
		user: model.User{
			UID:           model.UserID(fmt.Sprintf("uid-%d", x.seq)),
			Email:         email,
			EmailVerified: verified,
			IDToken:       fmt.Sprintf("id-token-%d", x.seq),
		},
		password: password,
	}
	x.accounts[email] = acct
	user := acct.user
	return &user
}

// AddIDToken makes SignInWithIDToken accept token for email
func (x *Identity) AddIDToken(token, email string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.idTokens[token] = email
}

// IssuedCode returns the latest action code sent to email, or an empty string
func (x *Identity) IssuedCode(email string, verify bool) string {
	x.mu.Lock()
	defer x.mu.Unlock()

	latest := ""
	latestSeq := -1
	for code, ac := range x.codes {
		var seq int
		if _, err := fmt.Sscanf(code[strings.LastIndex(code, "-")+1:], "%d", &seq); err != nil {
			continue
		}
		if ac.email == email && ac.verify == verify && seq > latestSeq {
			latest, latestSeq = code, seq
		}
	}
	return latest
}

// Lookup returns the current user record of email
func (x *Identity) Lookup(email string) (*model.User, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	acct, ok := x.accounts[email]
	if !ok {
		return nil, false
	}
	user := acct.user
	return &user, true
}

func (x *Identity) byUID(uid model.UserID) *account {
	for _, acct := range x.accounts {
		if acct.user.UID == uid {
			return acct
		}
	}
	return nil
}

func (x *Identity) issue(email string, verify bool) string {
	x.seq++
	prefix := "reset"
	if verify {
		prefix = "verify"
	}
	code := fmt.Sprintf("%s-%d", prefix, x.seq)
	x.codes[code] = actionCode{verify: verify, email: email}
	return code
}

func (x *Identity) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	switch {
	case !strings.Contains(email, "@"):
		return nil, authError(model.AuthCodeInvalidEmail, "failed to sign up")
	case len(password) < 6:
		return nil, authError(model.AuthCodeWeakPassword, "failed to sign up")
	case x.accounts[email] != nil:
		return nil, authError(model.AuthCodeEmailAlreadyInUse, "failed to sign up")
	}
	return x.addUser(email, password, false), nil
}

func (x *Identity) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	acct, ok := x.accounts[email]
	if !ok {
		return nil, authError(model.AuthCodeUserNotFound, "failed to sign in")
	}
	if acct.password != password {
		return nil, authError(model.AuthCodeWrongPassword, "failed to sign in")
	}
	user := acct.user
	return &user, nil
}

func (x *Identity) SignInWithIDToken(ctx context.Context, providerID, idToken string) (*model.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	email, ok := x.idTokens[idToken]
	if !ok {
		return nil, authError(model.AuthCodeInvalidCredential, "failed to sign in with identity provider")
	}
	acct, ok := x.accounts[email]
	if !ok {
		x.addUser(email, "", true)
		acct = x.accounts[email]
	}
	user := acct.user
	return &user, nil
}

func (x *Identity) Reload(ctx context.Context, user *model.User) (*model.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	acct := x.byUID(user.UID)
	if acct == nil {
		return nil, authError(model.AuthCodeUserNotFound, "user record not found")
	}
	reloaded := *user
	reloaded.Email = acct.user.Email
	reloaded.EmailVerified = acct.user.EmailVerified
	reloaded.DisplayName = acct.user.DisplayName
	reloaded.PhotoURL = acct.user.PhotoURL
	return &reloaded, nil
}

func (x *Identity) SendVerificationEmail(ctx context.Context, user *model.User) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	acct := x.byUID(user.UID)
	if acct == nil {
		return authError(model.AuthCodeUserNotFound, "failed to send verification email")
	}
	x.issue(acct.user.Email, true)
	return nil
}

func (x *Identity) SendPasswordReset(ctx context.Context, email string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.accounts[email] == nil {
		return authError(model.AuthCodeUserNotFound, "failed to send password reset email")
	}
	x.issue(email, false)
	return nil
}

func (x *Identity) ApplyActionCode(ctx context.Context, code string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	ac, ok := x.codes[code]
	if !ok || !ac.verify {
		return authError(model.AuthCodeInvalidActionCode, "failed to apply action code")
	}
	delete(x.codes, code)
	if acct := x.accounts[ac.email]; acct != nil {
		acct.user.EmailVerified = true
	}
	return nil
}

func (x *Identity) VerifyPasswordResetCode(ctx context.Context, code string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ac, ok := x.codes[code]
	if !ok || ac.verify {
		return "", authError(model.AuthCodeInvalidActionCode, "failed to verify password reset code")
	}
	return ac.email, nil
}

func (x *Identity) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	ac, ok := x.codes[code]
	if !ok || ac.verify {
		return authError(model.AuthCodeInvalidActionCode, "failed to confirm password reset")
	}
	if len(newPassword) < 6 {
		return authError(model.AuthCodeWeakPassword, "failed to confirm password reset")
	}
	delete(x.codes, code)
	if acct := x.accounts[ac.email]; acct != nil {
		acct.password = newPassword
	}
	return nil
}

func (x *Identity) UpdateProfile(ctx context.Context, user *model.User, update adapter.ProfileUpdate) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.Updates = append(x.Updates, update)
	if x.UpdateErr != nil {
		return goerr.Wrap(x.UpdateErr, "failed to update user profile", goerr.V("uid", user.UID))
	}

	acct := x.byUID(user.UID)
	if acct == nil {
		return authError(model.AuthCodeUserNotFound, "failed to update user profile")
	}
	acct.user.DisplayName = update.DisplayName
	acct.user.PhotoURL = update.PhotoURL
	return nil
}

// Verify marks the account of email as verified
func (x *Identity) Verify(email string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if acct := x.accounts[email]; acct != nil {
		acct.user.EmailVerified = true
	}
}
