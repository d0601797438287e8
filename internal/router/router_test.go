package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/auth"
	"github.com/lankanlens/rental-marketplace/internal/config"
	"github.com/lankanlens/rental-marketplace/internal/dbtest"
	"github.com/lankanlens/rental-marketplace/internal/handler"
	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/web"
)

// identities are picked by the X-Test-As header.
var identities = map[string]model.Identity{
	"admin":    {UserID: 1, Role: model.RoleAdmin, Status: model.StatusActive, FullName: "Admin"},
	"customer": {UserID: 2, Role: model.RoleCustomer, Status: model.StatusActive, FullName: "Customer"},
	"vendor":   {UserID: 3, Role: model.RoleVendor, Status: model.StatusActive, FullName: "Vendor"},
	"pending":  {UserID: 4, Role: model.RoleVendor, Status: model.StatusPending, FullName: "Pending"},
}

func newServer(t *testing.T, l Limits) *echo.Echo {
	t.Helper()
	db := dbtest.Open(t)
	cfg := config.Config{
		AppName: "LankanLens", Timezone: "UTC", ItemsPerPage: 12, WhatsAppBase: "https://wa.me/",
		BcryptCost: 4, MaxLoginTries: 5, LockoutWindow: time.Minute, SessionTTL: time.Hour,
		AssetsDir: t.TempDir(),
	}
	users := repository.NewUserRepo(db)
	sess := &middleware.Sessions{Secret: "router-test", TTL: time.Hour, RememberTTL: time.Hour, Users: users}
	authn := auth.NewAuthenticator(users, auth.LoginPolicy{MaxAttempts: cfg.MaxLoginTries, Lockout: cfg.LockoutWindow})

	inv := repository.NewInventoryRepo(db)
	cats := repository.NewCategoryRepo(db)
	catalog := repository.NewCatalogRepo(db)
	bookings := repository.NewBookingRepo(db)
	search := repository.NewSearchRepo(db)
	h := Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, authn, sess),
		Search:  handler.NewSearchHandler(cfg, search, cats),
		Product: handler.NewProductHandler(cfg, inv),
		Booking: handler.NewBookingHandler(bookings),
		Vendor:  handler.NewVendorHandler(repository.NewShopRepo(db), inv, catalog, cats, bookings),
		Admin: handler.NewAdminHandler(cfg, handler.AdminDeps{
			Users:      users,
			Vendors:    repository.NewVendorRepo(db),
			Shops:      repository.NewShopRepo(db),
			Catalog:    catalog,
			Categories: cats,
			Inventory:  inv,
			Bookings:   bookings,
			Logs:       repository.NewAdminLogRepo(db),
			Search:     search,
		}),
		DB: db,
	}

	e := echo.New()
	r, err := handler.NewRenderer(web.Templates, cfg.AppName, time.UTC)
	require.NoError(t, err)
	e.Renderer = r
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := identities[c.Request().Header.Get("X-Test-As")]; ok {
				middleware.SetIdentity(c, id)
			}
			return next(c)
		}
	})
	Register(e, h, l, cfg.AssetsDir)
	return e
}

func do(e *echo.Echo, method, target, as string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if as != "" {
		req.Header.Set("X-Test-As", as)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuards(t *testing.T) {
	e := newServer(t, Limits{})

	cases := []struct {
		name     string
		method   string
		target   string
		as       string
		code     int
		location string
	}{
		{"anonymous admin page", http.MethodGet, "/admin/dashboard.php", "", http.StatusSeeOther,
			"/public/login.php?return=%2Fadmin%2Fdashboard.php"},
		{"customer admin page", http.MethodGet, "/admin/users.php", "customer", http.StatusSeeOther, auth.UnauthorizedPath},
		{"pending vendor", http.MethodGet, "/vendor/dashboard.php", "pending", http.StatusSeeOther, auth.PendingPath},
		{"admin vendor page", http.MethodGet, "/vendor/dashboard.php", "admin", http.StatusSeeOther, auth.UnauthorizedPath},
		{"anonymous models api", http.MethodGet, "/api/get-models.php", "", http.StatusUnauthorized, ""},
		{"vendor images api", http.MethodGet, "/api/get-available-images.php", "vendor", http.StatusForbidden, ""},
		{"admin page", http.MethodGet, "/admin/dashboard.php", "admin", http.StatusOK, ""},
		{"vendor without shop", http.MethodGet, "/vendor/dashboard.php", "vendor", http.StatusOK, ""},
		{"public page", http.MethodGet, "/public/index.php", "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, tc.method, tc.target, tc.as)
			assert.Equal(t, tc.code, rec.Code)
			if tc.location != "" {
				assert.Equal(t, tc.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestAPIErrorsStayJSON(t *testing.T) {
	e := newServer(t, Limits{})

	rec := do(e, http.MethodGet, "/api/search-api.php", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	rec = do(e, http.MethodGet, "/api/no-such-endpoint.php", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	rec = do(e, http.MethodGet, "/public/missing.php", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
}

func TestHealthz(t *testing.T) {
	e := newServer(t, Limits{})
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLimitersWrapTheirRoutes(t *testing.T) {
	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"success": false})
		}
	}
	e := newServer(t, Limits{API: deny, Login: deny})

	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/api/check-auth.php", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/public/login.php", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/public/login.php", "").Code)

	rec := do(e, http.MethodGet, "/public/register.php", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `id="register-form"`))
}
