package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the database ping
	"net/http" // net/http provides status codes and response helpers
	"time"     // time sets the ping timeout

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is anything that can report database reachability; *sql.DB
// satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a health-check endpoint for load balancers and monitoring.
// It answers "ok" when the database responds within two seconds and 503
// otherwise.  A nil db skips the ping.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil { // database unreachable
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status
	}
}
