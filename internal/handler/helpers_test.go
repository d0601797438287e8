package handler

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/config"
	"github.com/lankanlens/rental-marketplace/internal/dbtest"
	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/web"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppName:       "LankanLens",
		Timezone:      "UTC",
		ItemsPerPage:  12,
		WhatsAppBase:  "https://wa.me/",
		BcryptCost:    4,
		MaxLoginTries: 5,
		LockoutWindow: 15 * time.Minute,
		SessionTTL:    time.Hour,
		RememberMeTTL: 24 * time.Hour,
		AssetsDir:     t.TempDir(),
	}
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	r, err := NewRenderer(web.Templates, "LankanLens", time.UTC)
	require.NoError(t, err)
	e.Renderer = r
	e.HTTPErrorHandler = ErrorHandler
	return e
}

type request struct {
	method string
	target string
	form   url.Values
	json   string
	as     *model.Identity
}

// serve runs h the way echo would, including the error handler.
func serve(t *testing.T, e *echo.Echo, h echo.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()
	if r.method == "" {
		r.method = http.MethodGet
	}
	var body io.Reader
	switch {
	case r.json != "":
		body = strings.NewReader(r.json)
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
	}
	req := httptest.NewRequest(r.method, r.target, body)
	switch {
	case r.json != "":
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	case r.form != nil:
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.as != nil {
		middleware.SetIdentity(c, *r.as)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

// market is a small marketplace: one admin, two vendors with a shop
// each, a customer and three listings.
type market struct {
	db *sql.DB

	admin, vendor, rival, customer uint64
	shop, rivalShop                uint64
	alpha, fx3, lens               uint64 // catalog templates
	alphaInv, rivalInv             uint64
}

func seedMarket(t *testing.T) market {
	t.Helper()
	db := dbtest.Open(t)
	m := market{db: db}
	m.admin = dbtest.InsertUser(t, db, dbtest.User{FullName: "Asha Admin", Email: "admin@lankanlens.lk", Role: "admin"})
	m.vendor = dbtest.InsertUser(t, db, dbtest.User{
		FullName: "Kasun Silva", Email: "kasun@lenshub.lk", Role: "vendor", ShopName: "Lens Hub",
	})
	m.rival = dbtest.InsertUser(t, db, dbtest.User{
		FullName: "Dilani Fernando", Email: "dilani@pixel.lk", Role: "vendor", ShopName: "Pixel Rentals",
	})
	m.customer = dbtest.InsertUser(t, db, dbtest.User{FullName: "Nimal Perera", Email: "nimal@example.lk"})

	m.shop = dbtest.InsertShop(t, db, "Lens Hub", "Colombo", 4.5, m.vendor)
	m.rivalShop = dbtest.InsertShop(t, db, "Pixel Rentals", "Kandy", 4.1, m.rival)

	m.alpha = dbtest.InsertTemplate(t, db, 1, "Alpha A7 IV", "Sony", "ILCE-7M4")
	m.fx3 = dbtest.InsertTemplate(t, db, 1, "FX3", "Sony", "ILME-FX3")
	m.lens = dbtest.InsertTemplate(t, db, 2, "RF 50mm F1.8", "Canon", "RF50")

	m.alphaInv = dbtest.InsertInventory(t, db, m.alpha, m.shop, 2, 2, "1234.57")
	m.rivalInv = dbtest.InsertInventory(t, db, m.fx3, m.rivalShop, 1, 1, "12000")
	return m
}

func (m market) identity(id uint64, role model.Role) *model.Identity {
	return &model.Identity{UserID: id, Role: role, Status: model.StatusActive, FullName: "Test"}
}

func (m market) asAdmin() *model.Identity    { return m.identity(m.admin, model.RoleAdmin) }
func (m market) asVendor() *model.Identity   { return m.identity(m.vendor, model.RoleVendor) }
func (m market) asCustomer() *model.Identity { return m.identity(m.customer, model.RoleCustomer) }

func (m market) lastAudit(t *testing.T) string {
	t.Helper()
	var action string
	require.NoError(t, m.db.QueryRow("SELECT action_type FROM admin_logs ORDER BY id DESC LIMIT 1").Scan(&action))
	return action
}
