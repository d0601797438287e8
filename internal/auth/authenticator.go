package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSuspended          = errors.New("account suspended")
	ErrRejected           = errors.New("vendor application rejected")
)

// LockedError reports a locked account and how long the lock lasts.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string { return fmt.Sprintf("account locked for %s", e.Remaining) }

// Minutes is the remaining lock time rounded up to whole minutes.
func (e *LockedError) Minutes() int { return minutesCeil(e.Remaining) }

// Message turns a Login error into the text shown on the login form.
func Message(err error) string {
	var locked *LockedError
	switch {
	case errors.As(err, &locked):
		return fmt.Sprintf("Account locked due to multiple failed login attempts. Please try again in %d minute(s).",
			locked.Minutes())
	case errors.Is(err, ErrSuspended):
		return "Your account has been suspended. Please contact admin."
	case errors.Is(err, ErrRejected):
		return "Your vendor application was not approved."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	}
	return "An error occurred. Please try again later."
}

// UserStore is the slice of the user repository a login needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	RecordFailedLogin(ctx context.Context, id uint64, at time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id uint64, at time.Time) error
}

// Authenticator checks email/password pairs against the user store and
// maintains the failed-attempt counter.
type Authenticator struct {
	Users  UserStore
	Policy LoginPolicy
	Now    func() time.Time
}

func NewAuthenticator(users UserStore, policy LoginPolicy) *Authenticator {
	return &Authenticator{Users: users, Policy: policy, Now: time.Now}
}

// Login returns the user on success.  A pending vendor also succeeds so
// the caller can route them to the waiting page; the counter is only
// reset for active accounts.
//
// The lock is checked before the password so a locked account reveals
// nothing about a correct guess.
func (a *Authenticator) Login(ctx context.Context, email, password string) (model.User, error) {
	now := a.Now().UTC()
	u, err := a.Users.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}

	if left := a.Policy.LockedFor(u, now); left > 0 {
		return model.User{}, &LockedError{Remaining: left}
	}

	if !utils.VerifyPassword(u.PasswordHash, password) {
		if err := a.Users.RecordFailedLogin(ctx, u.ID, now); err != nil {
			return model.User{}, fmt.Errorf("record failed login: %w", err)
		}
		return model.User{}, ErrInvalidCredentials
	}

	switch {
	case u.Status == model.StatusSuspended:
		return model.User{}, ErrSuspended
	case u.Status == model.StatusRejected:
		return model.User{}, ErrRejected
	case u.Status == model.StatusPending && u.Role == model.RoleVendor:
		return u, nil
	case u.Status == model.StatusActive:
		if err := a.Users.RecordSuccessfulLogin(ctx, u.ID, now); err != nil {
			return model.User{}, fmt.Errorf("record login: %w", err)
		}
		u.FailedLoginAttempts = 0
		u.LastFailedLogin = sql.NullTime{}
		u.LastLoginAt = sql.NullTime{Time: now, Valid: true}
		return u, nil
	}
	return model.User{}, ErrInvalidCredentials
}
