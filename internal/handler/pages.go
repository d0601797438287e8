package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/auth"
	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
)

// Unauthorized renders the access-denied page.
func Unauthorized(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	home := "/"
	if id.Authenticated() {
		home = auth.HomeFor(id.Role)
	}
	return render(c, http.StatusForbidden, "unauthorized.html", "Access denied", home)
}

// VendorPending renders the waiting page for vendors under review.
// Anyone else is sent to their usual landing page.
func VendorPending(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if !id.Authenticated() {
		return redirect(c, auth.LoginPath)
	}
	if id.Role != model.RoleVendor || id.Status != model.StatusPending {
		return redirect(c, landingFor(id, ""))
	}
	return render(c, http.StatusOK, "vendor-pending.html", "Application under review", id)
}
