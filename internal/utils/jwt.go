package utils // package utils provides helpers for session tokens, hashing and validation

import (
	"crypto/rand"   // secure random bytes for remember-me tokens
	"crypto/sha256" // remember-me tokens are stored hashed
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // signs the session cookie
	"github.com/google/uuid"       // unique token ids

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// SessionClaims is the payload of the session cookie.  Besides the
// registered claims it carries the identity snapshot taken at login so a
// request can be authorized without a database round trip.  ExpiresAt is
// the idle deadline: every authenticated request re-issues the token with
// a fresh one.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	FullName string `json:"name"`
}

// ErrBadSession is returned for any token that fails verification.
var ErrBadSession = errors.New("invalid session token")

// SessionToken is a signed session token and its idle deadline.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// NewSessionToken signs an HS256 token for id that expires ttl after now.
func NewSessionToken(secret string, id model.Identity, ttl time.Duration, now time.Time) (SessionToken, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.UserID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:     string(id.Role),
		Status:   string(id.Status),
		Email:    id.Email,
		FullName: id.FullName,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies raw at time now and returns the identity it
// carries.  Expired, tampered or foreign-algorithm tokens yield
// ErrBadSession wrapped around the library error.
func ParseSessionToken(secret, raw string, now time.Time) (model.Identity, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return model.Identity{}, errors.Join(ErrBadSession, err)
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return model.Identity{}, ErrBadSession
	}
	return model.Identity{
		UserID:   uid,
		Role:     model.Role(claims.Role),
		Status:   model.Status(claims.Status),
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}

// NewRememberToken returns 32 random bytes, hex encoded, for the
// remember-me cookie.
func NewRememberToken() (string, error) { return randomHex(32) }

// HashRememberToken returns the SHA-256 of a raw remember-me token.  Only
// the hash is stored on the user row, so a leaked table cannot be replayed
// as cookies.
func HashRememberToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns n bytes from crypto/rand as a hex string.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
