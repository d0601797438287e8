package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/assets"
	"github.com/lankanlens/rental-marketplace/internal/config"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// AdminHandler serves the admin console.  Every route it backs sits
// behind RequireAdmin, and every mutation it triggers is journalled by
// the repository in the same transaction.
type AdminHandler struct {
	Cfg        config.Config
	Users      *repository.UserRepo
	Vendors    *repository.VendorRepo
	Shops      *repository.ShopRepo
	Catalog    *repository.CatalogRepo
	Categories *repository.CategoryRepo
	Inventory  *repository.InventoryRepo
	Bookings   *repository.BookingRepo
	Logs       *repository.AdminLogRepo
	Search     *repository.SearchRepo
	Images     assets.Library
	Now        func() time.Time
}

// AdminDeps groups the repositories NewAdminHandler needs.
type AdminDeps struct {
	Users      *repository.UserRepo
	Vendors    *repository.VendorRepo
	Shops      *repository.ShopRepo
	Catalog    *repository.CatalogRepo
	Categories *repository.CategoryRepo
	Inventory  *repository.InventoryRepo
	Bookings   *repository.BookingRepo
	Logs       *repository.AdminLogRepo
	Search     *repository.SearchRepo
}

func NewAdminHandler(cfg config.Config, d AdminDeps) *AdminHandler {
	return &AdminHandler{
		Cfg:        cfg,
		Users:      d.Users,
		Vendors:    d.Vendors,
		Shops:      d.Shops,
		Catalog:    d.Catalog,
		Categories: d.Categories,
		Inventory:  d.Inventory,
		Bookings:   d.Bookings,
		Logs:       d.Logs,
		Search:     d.Search,
		Images:     assets.Library{Dir: cfg.AssetsDir},
		Now:        time.Now,
	}
}

// AdminDashboard is the data of admin/dashboard.html.
type AdminDashboard struct {
	Users          repository.UserCounts
	Shops          repository.ShopCounts
	CatalogSize    int64
	Listings       repository.ListingStats
	Bookings       repository.BookingCounts
	RecentBookings []repository.BookingRow
	RecentLogs     []model.AdminLog
	Categories     []repository.CategoryBreakdown
	TopSearches    []repository.TopSearch
}

// Dashboard renders GET /admin/dashboard.php.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		d   AdminDashboard
		err error
	)
	if d.Users, err = h.Users.Counts(ctx); err != nil {
		return serverError("user counts", err)
	}
	if d.Shops, err = h.Shops.Counts(ctx); err != nil {
		return serverError("shop counts", err)
	}
	if d.CatalogSize, err = h.Catalog.Count(ctx); err != nil {
		return serverError("catalog count", err)
	}
	if d.Listings, err = h.Inventory.Stats(ctx, 0); err != nil {
		return serverError("listing stats", err)
	}
	if d.Bookings, err = h.Bookings.Counts(ctx, 0); err != nil {
		return serverError("booking counts", err)
	}
	if d.RecentBookings, err = h.Bookings.Recent(ctx, 0, 10); err != nil {
		return serverError("recent bookings", err)
	}
	if d.RecentLogs, err = h.Logs.Recent(ctx, 10); err != nil {
		return serverError("recent admin logs", err)
	}
	if d.Categories, err = h.Categories.Breakdown(ctx); err != nil {
		return serverError("category breakdown", err)
	}
	if d.TopSearches, err = h.Search.TopTerms(ctx, h.Now().AddDate(0, 0, -30), 5); err != nil {
		return serverError("top searches", err)
	}
	return render(c, http.StatusOK, "admin/dashboard.html", "Admin dashboard", d)
}

// back is where a moderation POST returns to: the same page with its
// filters.
func back(c echo.Context) string {
	return c.Request().URL.RequestURI()
}
