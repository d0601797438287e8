package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// ListingsPage is the data of admin/listings.html.
type ListingsPage struct {
	Filter     repository.ListingFilter
	Categories []model.Category
	Stats      repository.ListingStats
	Listings   []repository.ListingRow
	Pager      Pager
}

// Listings renders GET /admin/listings.php.
func (h *AdminHandler) Listings(c echo.Context) error {
	f := repository.ListingFilter{
		CategoryID: formID(c.QueryParam("category")),
		Status:     c.QueryParam("status"),
		Search:     strings.TrimSpace(c.QueryParam("search")),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page := ListingsPage{Filter: f}
	var err error
	if page.Categories, err = h.Categories.List(ctx); err != nil {
		return serverError("list categories", err)
	}
	if page.Stats, err = h.Inventory.Stats(ctx, 0); err != nil {
		return serverError("listing stats", err)
	}
	pg := pageOf(c, 20)
	var total int64
	if page.Listings, total, err = h.Inventory.List(ctx, f, pg); err != nil {
		return serverError("list listings", err)
	}
	page.Pager = newPager(c, total, pg)
	return render(c, http.StatusOK, "admin/listings.html", "Listings", page)
}

// ModerateListing applies POST /admin/listings.php.
func (h *AdminHandler) ModerateListing(c echo.Context) error {
	action, err := model.ParseListingAction(c.FormValue("action"))
	if err != nil {
		addFlash(c, flashError, "Invalid action.")
		return redirect(c, back(c))
	}
	id := formID(c.FormValue("inventory_id"))
	if id == 0 {
		addFlash(c, flashError, "Invalid listing ID.")
		return redirect(c, back(c))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err = h.Inventory.Moderate(ctx, actorOf(c), id, action)
	flashOutcome(c, err, listingDone[action], "moderate listing")
	return redirect(c, back(c))
}
