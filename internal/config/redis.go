package config

// Redis backs the token-bucket rate limiter on the login form and the JSON
// API.  When the server cannot be reached at startup the constructor
// returns nil and the limiter turns itself into a pass-through.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes how to reach the Redis server.
type RedisConfig struct {
	Addr     string // host:port
	Password string // optional
	DB       int    // database number
	TLS      bool   // dial with TLS
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or the REDIS_ADDR
// shorthand), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	tlsEnv := envStr("REDIS_TLS", "")
	return RedisConfig{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
	}
}

// NewRedisClient dials Redis and pings it with a short timeout.  The
// returned client is nil if the server is unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      rc.Addr,
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
