package config

import "time"

// RateLimitConfig tunes one token bucket.  Capacity tokens are available
// up front; RefillTokens are added back every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip | user | ip_user | ip_route | ip_user_route
	Prefix         string
}

// LoadRateLimitConfig returns the bucket guarding the JSON API
// (search, booking, email probe).
func LoadRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl:api"),
	})
}

// LoadLoginRateLimitConfig returns the stricter per-IP bucket in front of
// the login form.  It complements the per-account lockout, which cannot
// see attempts spread across many accounts.
func LoadLoginRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("LOGIN_RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   1,
		RefillInterval: envDur("LOGIN_RATE_LIMIT_REFILL_EVERY", 30*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    "ip",
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl:api") + ":login",
	})
}

func normalize(c RateLimitConfig) RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
