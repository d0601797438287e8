// Package auth decides who may reach which page and authenticates logins.
package auth

import (
	"net/url"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// Requirement names the audience of a guarded route.  A zero Role means
// any signed-in user.
type Requirement struct {
	Role model.Role
}

var (
	AnyUser      = Requirement{}
	AdminOnly    = Requirement{Role: model.RoleAdmin}
	VendorOnly   = Requirement{Role: model.RoleVendor}
	CustomerOnly = Requirement{Role: model.RoleCustomer}
)

// Outcome is what a guard does with a request.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectUnauthorized
	RedirectPending
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "login"
	case RedirectUnauthorized:
		return "unauthorized"
	case RedirectPending:
		return "vendor-pending"
	}
	return "unknown"
}

const (
	LoginPath        = "/public/login.php"
	UnauthorizedPath = "/public/unauthorized.php"
	PendingPath      = "/public/vendor-pending.php"
)

// Decide maps an identity and a requirement to an outcome.  Role-specific
// routes also require an active account; a pending vendor asking for a
// vendor page is sent to the waiting page instead of the generic denial.
func Decide(id model.Identity, req Requirement) Outcome {
	if !id.Authenticated() {
		return RedirectLogin
	}
	if req.Role == "" {
		return Allow
	}
	if id.Role != req.Role {
		return RedirectUnauthorized
	}
	switch id.Status {
	case model.StatusActive:
		return Allow
	case model.StatusPending:
		if req.Role == model.RoleVendor {
			return RedirectPending
		}
	}
	return RedirectUnauthorized
}

// Location returns where a non-Allow outcome sends the browser.  The login
// redirect carries the original request URI so the user lands back on it.
func (o Outcome) Location(requestURI string) string {
	switch o {
	case RedirectLogin:
		return LoginPath + "?return=" + url.QueryEscape(requestURI)
	case RedirectPending:
		return PendingPath
	case RedirectUnauthorized:
		return UnauthorizedPath
	}
	return ""
}

// SafeReturn accepts only same-site relative paths as post-login targets.
func SafeReturn(raw string) string {
	if raw == "" || raw[0] != '/' || len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}

// HomeFor is the landing page after a successful login.
func HomeFor(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "/admin/dashboard.php"
	case model.RoleVendor:
		return "/vendor/dashboard.php"
	}
	return "/"
}
