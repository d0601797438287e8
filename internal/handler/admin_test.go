package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/dbtest"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

func newAdminHandler(t *testing.T, m market) *AdminHandler {
	h := NewAdminHandler(testConfig(t), AdminDeps{
		Users:      repository.NewUserRepo(m.db),
		Vendors:    repository.NewVendorRepo(m.db),
		Shops:      repository.NewShopRepo(m.db),
		Catalog:    repository.NewCatalogRepo(m.db),
		Categories: repository.NewCategoryRepo(m.db),
		Inventory:  repository.NewInventoryRepo(m.db),
		Bookings:   repository.NewBookingRepo(m.db),
		Logs:       repository.NewAdminLogRepo(m.db),
		Search:     repository.NewSearchRepo(m.db),
	})
	h.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	return h
}

// addImage drops a file into the handler's image library.
func addImage(t *testing.T, h *AdminHandler, name string) string {
	t.Helper()
	dir := filepath.Join(h.Images.Dir, "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	return "/assets/images/" + name
}

func TestAdminDashboard(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)

	rec := serve(t, newEcho(t), h.Dashboard, request{target: "/admin/dashboard.php", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin dashboard")
}

func TestAdminListings(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)

	rec := serve(t, newEcho(t), h.Listings, request{target: "/admin/listings.php?search=FX3", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pixel Rentals")
}

func TestAdminModerateListing(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)
	target := "/admin/listings.php?status=available&page=2"

	rec := serve(t, e, h.ModerateListing, request{method: http.MethodPost, target: target, as: m.asAdmin(),
		form: url.Values{"action": {"launch"}, "inventory_id": {fmt.Sprint(m.rivalInv)}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, dbtest.Count(t, m.db, "admin_logs", ""))

	rec = serve(t, e, h.ModerateListing, request{method: http.MethodPost, target: target, as: m.asAdmin(),
		form: url.Values{"action": {"disable"}, "inventory_id": {fmt.Sprint(m.rivalInv)}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, target, rec.Header().Get("Location"))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "inventory", "id = ? AND available_quantity = 0", m.rivalInv))
	assert.Equal(t, "LISTING_DISABLE", m.lastAudit(t))
}

func TestAdminUsers(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)

	rec := serve(t, e, h.UsersIndex, request{target: "/admin/users.php?role=customer", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nimal@example.lk")

	rec = serve(t, e, h.ModerateUser, request{method: http.MethodPost, target: "/admin/users.php", as: m.asAdmin(),
		form: url.Values{"action": {"suspend"}, "user_id": {fmt.Sprint(m.customer)}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, dbtest.Count(t, m.db, "users", "id = ? AND status = 'suspended'", m.customer))
	assert.Equal(t, "USER_SUSPEND", m.lastAudit(t))

	// admins cannot moderate themselves
	serve(t, e, h.ModerateUser, request{method: http.MethodPost, target: "/admin/users.php", as: m.asAdmin(),
		form: url.Values{"action": {"suspend"}, "user_id": {fmt.Sprint(m.admin)}}})
	assert.Equal(t, 1, dbtest.Count(t, m.db, "users", "id = ? AND status = 'active'", m.admin))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "admin_logs", ""))
}

func TestAdminApprovesVendor(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)
	pending := dbtest.InsertUser(t, m.db, dbtest.User{
		FullName: "Tharindu Wijesinghe", Email: "tharindu@galleoptics.lk", Role: "vendor", Status: "pending",
		ShopName: "Galle Optics",
	})

	rec := serve(t, e, h.VendorsIndex, request{target: "/admin/vendor-approvals.php", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Galle Optics")

	rec = serve(t, e, h.DecideVendor, request{method: http.MethodPost, target: "/admin/vendor-approvals.php", as: m.asAdmin(),
		form: url.Values{"action": {"approve"}, "user_id": {fmt.Sprint(pending)}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, dbtest.Count(t, m.db, "users", "id = ? AND status = 'active'", pending))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "shops", "owner_user_id = ? AND shop_name = 'Galle Optics'", pending))
	assert.Equal(t, "VENDOR_APPROVE", m.lastAudit(t))

	// a second approval is refused and not journalled
	serve(t, e, h.DecideVendor, request{method: http.MethodPost, target: "/admin/vendor-approvals.php", as: m.asAdmin(),
		form: url.Values{"action": {"approve"}, "user_id": {fmt.Sprint(pending)}}})
	assert.Equal(t, 1, dbtest.Count(t, m.db, "admin_logs", ""))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "shops", "owner_user_id = ?", pending))
}

func TestAdminCatalog(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)

	rec := serve(t, e, h.CatalogIndex, request{target: "/admin/manage-master-gear.php", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RF 50mm F1.8")

	form := url.Values{
		"action": {"save"}, "category_id": {"1"}, "equipment_name": {"Lumix S5 II"},
		"brand": {"Panasonic"}, "model_number": {"DC-S5M2"}, "condition": {"Excellent"},
		"specifications": {`{"sensor":"Full frame"}`},
	}
	rec = serve(t, e, h.CatalogAction, request{method: http.MethodPost, target: catalogPath, as: m.asAdmin(), form: form})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image path is required.")

	form.Set("image_url", "/assets/images/missing.jpg")
	rec = serve(t, e, h.CatalogAction, request{method: http.MethodPost, target: catalogPath, as: m.asAdmin(), form: form})
	assert.Contains(t, rec.Body.String(), "Image path must point to a valid file in /assets/images/.")
	assert.Equal(t, 0, dbtest.Count(t, m.db, "admin_logs", ""))

	form.Set("image_url", addImage(t, h, "lumix.jpg"))
	rec = serve(t, e, h.CatalogAction, request{method: http.MethodPost, target: catalogPath, as: m.asAdmin(), form: form})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, catalogPath, rec.Header().Get("Location"))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "equipment", "equipment_name = 'Lumix S5 II' AND shop_id = ?", dbtest.CatalogShopID))
	assert.Equal(t, "CATALOG_CREATE", m.lastAudit(t))

	rec = serve(t, e, h.CatalogIndex, request{target: "/admin/manage-master-gear.php?edit=9999", as: m.asAdmin()})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, catalogPath, rec.Header().Get("Location"))

	rec = serve(t, e, h.CatalogIndex, request{target: fmt.Sprintf("/admin/manage-master-gear.php?edit=%d", m.lens), as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="RF50"`)
}

func TestAdminImagesAPI(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)

	rec := serve(t, e, h.ImagesAPI, request{target: "/api/get-available-images.php", as: m.asAdmin()})
	assert.JSONEq(t, `{"success":false,"error":"Images directory not found"}`, rec.Body.String())

	addImage(t, h, "b.png")
	addImage(t, h, "a.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(h.Images.Dir, "images", "notes.txt"), []byte("x"), 0o644))

	rec = serve(t, e, h.ImagesAPI, request{target: "/api/get-available-images.php", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Images  []struct {
			Path string `json:"path"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "/assets/images/a.jpg", out.Images[0].Path)
	assert.Equal(t, "/assets/images/b.png", out.Images[1].Path)
}

func TestAdminLogs(t *testing.T) {
	m := seedMarket(t)
	h := newAdminHandler(t, m)
	e := newEcho(t)
	serve(t, e, h.ModerateUser, request{method: http.MethodPost, target: "/admin/users.php", as: m.asAdmin(),
		form: url.Values{"action": {"suspend"}, "user_id": {fmt.Sprint(m.customer)}}})

	rec := serve(t, e, h.LogsIndex, request{target: "/admin/logs.php?action=USER_SUSPEND", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_SUSPEND")
	assert.Contains(t, rec.Body.String(), "/admin/logs.csv?action=USER_SUSPEND")

	rec = serve(t, e, h.LogsIndex, request{target: "/admin/logs.php?date_from=yesterday", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid start date.")

	rec = serve(t, e, h.ExportLogs, request{target: "/admin/logs.csv", as: m.asAdmin()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "admin-logs-20261015-093000.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,created_at,admin,action,target_user,equipment,details,ip_address", lines[0])
	assert.Contains(t, lines[1], "USER_SUSPEND")
	assert.Contains(t, lines[1], fmt.Sprintf("Nimal Perera (#%d)", m.customer))
}
