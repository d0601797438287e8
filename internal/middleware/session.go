package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

const (
	SessionCookie  = "ll_session"
	RememberCookie = "remember_token"

	identityKey = "identity"
)

// RememberLookup finds the user owning a hashed remember-me token.
type RememberLookup interface {
	GetByRememberToken(ctx context.Context, tokenHash string) (model.User, error)
}

// AccountLookup re-reads a signed-in user by id.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Sessions issues and verifies the session cookie.  The cookie is a
// signed token carrying the identity; its expiry is the idle deadline and
// moves forward on every request that presents a valid token.  With
// Accounts set, the claims are refreshed from the users table on every
// request, so moderation and approvals reach live sessions.
type Sessions struct {
	Secret      string
	TTL         time.Duration
	RememberTTL time.Duration
	Secure      bool
	Users       RememberLookup
	Accounts    AccountLookup
	Now         func() time.Time
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Middleware resolves the request identity and stores it on the context.
// An expired or invalid session cookie is cleared; a remember-me cookie,
// when present, then gets one chance to restore the session.
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := s.now()
			id := model.Identity{}

			if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
				parsed, perr := utils.ParseSessionToken(s.Secret, ck.Value, now)
				if perr == nil {
					id = s.refresh(c, parsed)
				} else {
					s.expire(c, SessionCookie)
				}
			}

			if !id.Authenticated() {
				id = s.restore(c)
			}

			if id.Authenticated() {
				if err := s.Issue(c, id); err != nil {
					zap.L().Error("session re-issue failed", zap.Error(err), zap.Uint64("user_id", id.UserID))
				}
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// refresh reloads the user behind a valid token.  A deleted, suspended or
// rejected account ends the session; a failed lookup keeps the claims.
func (s *Sessions) refresh(c echo.Context, id model.Identity) model.Identity {
	if s.Accounts == nil {
		return id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := s.Accounts.GetByID(ctx, id.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// deleted
	case err != nil:
		zap.L().Warn("session refresh failed", zap.Error(err), zap.Uint64("user_id", id.UserID))
		return id
	case u.Status != model.StatusSuspended && u.Status != model.StatusRejected:
		return model.IdentityOf(u)
	}
	s.expire(c, SessionCookie)
	return model.Identity{}
}

// restore re-establishes a session from the remember-me cookie.  Tokens
// that match no user, or a user who may no longer sign in, are dropped.
func (s *Sessions) restore(c echo.Context) model.Identity {
	ck, err := c.Cookie(RememberCookie)
	if err != nil || ck.Value == "" || s.Users == nil {
		return model.Identity{}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := s.Users.GetByRememberToken(ctx, utils.HashRememberToken(ck.Value))
	if err != nil || u.Status == model.StatusSuspended || u.Status == model.StatusRejected {
		s.expire(c, RememberCookie)
		return model.Identity{}
	}
	return model.IdentityOf(u)
}

// Issue writes a fresh session cookie for id.
func (s *Sessions) Issue(c echo.Context, id model.Identity) error {
	tok, err := utils.NewSessionToken(s.Secret, id, s.TTL, s.now())
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(SessionCookie, tok.Token, 0))
	return nil
}

// Remember sets the remember-me cookie to raw.
func (s *Sessions) Remember(c echo.Context, raw string) {
	c.SetCookie(s.cookie(RememberCookie, raw, s.RememberTTL))
}

// Clear removes both cookies and resets the request identity.
func (s *Sessions) Clear(c echo.Context) {
	s.expire(c, SessionCookie)
	s.expire(c, RememberCookie)
	SetIdentity(c, model.Identity{})
}

func (s *Sessions) expire(c echo.Context, name string) {
	ck := s.cookie(name, "", 0)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
}

// cookie builds an HttpOnly cookie; a zero maxAge makes it a browser
// session cookie.
func (s *Sessions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		ck.MaxAge = int(maxAge / time.Second)
		ck.Expires = s.now().Add(maxAge)
	}
	return ck
}

// CurrentIdentity returns the identity resolved for this request, or the
// anonymous identity.
func CurrentIdentity(c echo.Context) model.Identity {
	if id, ok := c.Get(identityKey).(model.Identity); ok {
		return id
	}
	return model.Identity{}
}

// SetIdentity replaces the request identity.  Login and logout use it so
// the page rendered in the same request sees the new state.
func SetIdentity(c echo.Context, id model.Identity) { c.Set(identityKey, id) }
