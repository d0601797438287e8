package router // package router maps the marketplace's legacy .php URLs onto handlers

import (
	"net/http" // http method names for Match

	"github.com/labstack/echo/v4" // echo routing and groups

	"github.com/lankanlens/rental-marketplace/internal/handler"    // page and API handlers
	"github.com/lankanlens/rental-marketplace/internal/middleware" // role guards
)

// Handlers is everything the route table points at.
type Handlers struct {
	Auth    *handler.AuthHandler
	Search  *handler.SearchHandler
	Product *handler.ProductHandler
	Booking *handler.BookingHandler
	Vendor  *handler.VendorHandler
	Admin   *handler.AdminHandler
	DB      handler.Pinger
}

// Limits are the rate limiters in front of the JSON API and the login
// form.  A nil limiter lets everything through.
type Limits struct {
	API   echo.MiddlewareFunc
	Login echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return passThrough
	}
	return m
}

var getPost = []string{http.MethodGet, http.MethodPost}

// Register installs the whole route table.  The session middleware must
// already be on e so the guards see the caller's identity.
func Register(e *echo.Echo, h Handlers, l Limits, assetsDir string) {
	e.GET("/healthz", handler.Health(h.DB))
	e.Static("/assets", assetsDir)

	RegisterPublic(e, h)
	RegisterAuth(e, h.Auth, orPass(l.Login))
	RegisterAPI(e, h, orPass(l.API))
	RegisterVendor(e, h.Vendor)
	RegisterAdmin(e, h.Admin)
}

// RegisterPublic registers the pages anyone may open.
func RegisterPublic(e *echo.Echo, h Handlers) {
	e.GET("/", h.Search.Index)
	e.GET("/index.php", h.Search.Index)
	e.GET("/public/index.php", h.Search.Index)
	e.GET("/public/results.php", h.Search.Results)
	e.GET("/public/product.php", h.Product.Show)
	e.GET("/public/unauthorized.php", handler.Unauthorized)
	e.GET("/public/vendor-pending.php", handler.VendorPending)
}

// RegisterAuth registers login, registration and logout.  Only the login
// POST is rate limited; the per-account lockout covers the rest.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, loginLimit echo.MiddlewareFunc) {
	e.GET("/public/login.php", a.ShowLogin)
	e.POST("/public/login.php", a.Login, loginLimit)
	e.GET("/public/register.php", a.ShowRegister)
	e.POST("/public/register.php", a.Register)
	e.Match(getPost, "/public/logout.php", a.Logout)
}

// RegisterAPI registers the JSON endpoints under /api.
func RegisterAPI(e *echo.Echo, h Handlers, limit echo.MiddlewareFunc) {
	api := e.Group("/api", limit)
	// the search endpoint answers 405 itself so clients get the JSON body
	api.Any("/search-api.php", h.Search.API)
	api.POST("/booking-api.php", h.Booking.Create)
	api.POST("/check-email.php", h.Auth.CheckEmail)
	api.GET("/check-auth.php", h.Auth.CheckAuth)
	api.GET("/get-models.php", h.Vendor.Models, middleware.RequireActiveVendor())
	api.GET("/get-available-images.php", h.Admin.ImagesAPI, middleware.RequireAdmin())
}

// RegisterVendor registers the shop dashboard.  Pending vendors are parked
// on the waiting page by the guard.
func RegisterVendor(e *echo.Echo, v *handler.VendorHandler) {
	g := e.Group("/vendor", middleware.RequireActiveVendor())
	g.GET("/dashboard.php", v.Dashboard)
	g.POST("/dashboard.php", v.Act)
	g.GET("/add-equipment.php", v.ShowAddEquipment)
	g.POST("/add-equipment.php", v.AddEquipment)
}

// RegisterAdmin registers the admin console.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	g := e.Group("/admin", middleware.RequireAdmin())
	g.GET("/dashboard.php", a.Dashboard)
	g.GET("/listings.php", a.Listings)
	g.POST("/listings.php", a.ModerateListing)
	g.GET("/manage-master-gear.php", a.CatalogIndex)
	g.POST("/manage-master-gear.php", a.CatalogAction)
	g.GET("/vendor-approvals.php", a.VendorsIndex)
	g.POST("/vendor-approvals.php", a.DecideVendor)
	g.GET("/users.php", a.UsersIndex)
	g.POST("/users.php", a.ModerateUser)
	g.GET("/logs.php", a.LogsIndex)
	g.GET("/logs.csv", a.ExportLogs)
}
