package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	id := model.Identity{UserID: 42, Role: model.RoleVendor, Status: model.StatusPending, Email: "v@example.lk", FullName: "Vendor"}

	tok, err := NewSessionToken("secret", id, 2*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), tok.Exp)

	got, err := ParseSessionToken("secret", tok.Token, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessionTokenRejections(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tok, err := NewSessionToken("secret", model.Identity{UserID: 1, Role: model.RoleAdmin}, time.Hour, now)
	require.NoError(t, err)

	_, err = ParseSessionToken("secret", tok.Token, now.Add(61*time.Minute))
	assert.ErrorIs(t, err, ErrBadSession, "expired")

	_, err = ParseSessionToken("other", tok.Token, now)
	assert.ErrorIs(t, err, ErrBadSession, "wrong key")

	_, err = ParseSessionToken("secret", tok.Token+"x", now)
	assert.ErrorIs(t, err, ErrBadSession, "tampered")

	_, err = ParseSessionToken("secret", "", now)
	assert.ErrorIs(t, err, ErrBadSession)
}

func TestRememberToken(t *testing.T) {
	a, err := NewRememberToken()
	require.NoError(t, err)
	b, err := NewRememberToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashRememberToken(a), 64)
	assert.Equal(t, HashRememberToken(a), HashRememberToken(a))
	assert.NotEqual(t, a, HashRememberToken(a))
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "s3cret-pass"))
	assert.False(t, VerifyPassword(h, "s3cret-Pass"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))
}

type signup struct {
	Name  string `validate:"required,min=3,max=255"`
	Email string `validate:"required,email"`
}

func TestMessages(t *testing.T) {
	err := ValidateStruct(signup{Name: "Al", Email: "nope"})
	require.Error(t, err)
	msgs := Messages(err, map[string]string{"Name.min": "Full name must be between 3 and 255 characters."})
	assert.Equal(t, []string{"Full name must be between 3 and 255 characters.", "Invalid email format."}, msgs)

	assert.Nil(t, Messages(nil, nil))
	assert.NoError(t, ValidateStruct(signup{Name: "Amaya", Email: "amaya@example.lk"}))
}

func TestFailing(t *testing.T) {
	err := ValidateStruct(signup{Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, map[string]bool{"Name": true}, Failing(err, "required"))
	assert.Equal(t, map[string]bool{"Name": true, "Email": true}, Failing(err, "required", "email"))
	assert.Nil(t, Failing(nil, "required"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("amaya@example.lk"))
	assert.False(t, IsEmail("amaya@"))
	assert.False(t, IsEmail(""))
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("https://wa.me", "+94 77 123-4567", "Hi, is the FX3 available?")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/94771234567?text="))
	assert.Contains(t, link, "FX3+available%3F")
	assert.Equal(t, "https://wa.me/0771234567", WhatsAppLink("https://wa.me/", "0771234567", ""))
	assert.Empty(t, WhatsAppLink("https://wa.me/", "n/a", "hi"))
}
