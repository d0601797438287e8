package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/auth"
	"github.com/lankanlens/rental-marketplace/internal/model"
)

// Require returns a middleware that lets a request through only when
// auth.Decide allows the current identity.  Browser requests are
// redirected (login, unauthorized or vendor-pending); requests under
// /api/ get a JSON 401 or 403 instead.
func Require(req auth.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			outcome := auth.Decide(CurrentIdentity(c), req)
			if outcome == auth.Allow {
				return next(c)
			}
			r := c.Request()
			if strings.HasPrefix(r.URL.Path, "/api/") {
				if outcome == auth.RedirectLogin {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Authentication required"})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Access denied"})
			}
			return c.Redirect(http.StatusSeeOther, outcome.Location(r.URL.RequestURI()))
		}
	}
}

// RequireLogin admits any signed-in user.
func RequireLogin() echo.MiddlewareFunc { return Require(auth.AnyUser) }

// RequireAdmin admits active admins.
func RequireAdmin() echo.MiddlewareFunc { return Require(auth.AdminOnly) }

// RequireActiveVendor admits active vendors and parks pending ones.
func RequireActiveVendor() echo.MiddlewareFunc { return Require(auth.VendorOnly) }

// RequireCustomer admits active customers.
func RequireCustomer() echo.MiddlewareFunc { return Require(auth.CustomerOnly) }

// RequireRole admits active users of role.
func RequireRole(role model.Role) echo.MiddlewareFunc { return Require(auth.Requirement{Role: role}) }
