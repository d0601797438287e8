package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

func TestDecide(t *testing.T) {
	who := func(role model.Role, status model.Status) model.Identity {
		return model.Identity{UserID: 7, Role: role, Status: status}
	}
	tests := []struct {
		name   string
		id     model.Identity
		admin  Outcome
		vendor Outcome
	}{
		{"anonymous", model.Identity{}, RedirectLogin, RedirectLogin},
		{"customer", who(model.RoleCustomer, model.StatusActive), RedirectUnauthorized, RedirectUnauthorized},
		{"pending vendor", who(model.RoleVendor, model.StatusPending), RedirectUnauthorized, RedirectPending},
		{"active vendor", who(model.RoleVendor, model.StatusActive), RedirectUnauthorized, Allow},
		{"suspended vendor", who(model.RoleVendor, model.StatusSuspended), RedirectUnauthorized, RedirectUnauthorized},
		{"rejected vendor", who(model.RoleVendor, model.StatusRejected), RedirectUnauthorized, RedirectUnauthorized},
		{"admin", who(model.RoleAdmin, model.StatusActive), Allow, RedirectUnauthorized},
		{"suspended admin", who(model.RoleAdmin, model.StatusSuspended), RedirectUnauthorized, RedirectUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admin, Decide(tt.id, AdminOnly), "admin-only")
			assert.Equal(t, tt.vendor, Decide(tt.id, VendorOnly), "vendor-only")
		})
	}
}

func TestDecideAnyUserAndCustomer(t *testing.T) {
	pending := model.Identity{UserID: 3, Role: model.RoleVendor, Status: model.StatusPending}
	assert.Equal(t, Allow, Decide(pending, AnyUser))
	assert.Equal(t, RedirectLogin, Decide(model.Identity{}, AnyUser))

	customer := model.Identity{UserID: 4, Role: model.RoleCustomer, Status: model.StatusActive}
	assert.Equal(t, Allow, Decide(customer, CustomerOnly))
	customer.Status = model.StatusSuspended
	assert.Equal(t, RedirectUnauthorized, Decide(customer, CustomerOnly))
}

func TestOutcomeLocation(t *testing.T) {
	assert.Equal(t, "/public/login.php?return=%2Fadmin%2Fusers.php%3Fpage%3D2", RedirectLogin.Location("/admin/users.php?page=2"))
	assert.Equal(t, "/public/vendor-pending.php", RedirectPending.Location("/vendor/dashboard.php"))
	assert.Equal(t, "/public/unauthorized.php", RedirectUnauthorized.Location("/admin/"))
	assert.Equal(t, "", Allow.Location("/"))
}

func TestSafeReturn(t *testing.T) {
	assert.Equal(t, "/public/product.php?id=4", SafeReturn("/public/product.php?id=4"))
	for _, bad := range []string{"", "https://evil.example", "//evil.example/x", "/\\evil.example", "javascript:alert(1)"} {
		assert.Empty(t, SafeReturn(bad), bad)
	}
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, "/admin/dashboard.php", HomeFor(model.RoleAdmin))
	assert.Equal(t, "/vendor/dashboard.php", HomeFor(model.RoleVendor))
	assert.Equal(t, "/", HomeFor(model.RoleCustomer))
}
