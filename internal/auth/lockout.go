package auth

import (
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// LoginPolicy is the brute-force lockout rule.
type LoginPolicy struct {
	MaxAttempts int
	Lockout     time.Duration
}

// LockedFor returns how long u stays locked at now, or zero.  An account
// locks once it has MaxAttempts failures and the latest one is younger
// than Lockout.
func (p LoginPolicy) LockedFor(u model.User, now time.Time) time.Duration {
	if p.MaxAttempts <= 0 || u.FailedLoginAttempts < p.MaxAttempts || !u.LastFailedLogin.Valid {
		return 0
	}
	until := u.LastFailedLogin.Time.Add(p.Lockout)
	if !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

// minutesCeil rounds a remaining lock time up to whole minutes.
func minutesCeil(d time.Duration) int {
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	if m < 1 {
		m = 1
	}
	return m
}
