package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

const vendorDashboardPath = "/vendor/dashboard.php"

// VendorHandler serves the vendor dashboard and listing management.
type VendorHandler struct {
	Shops      *repository.ShopRepo
	Inventory  *repository.InventoryRepo
	Catalog    *repository.CatalogRepo
	Categories *repository.CategoryRepo
	Bookings   *repository.BookingRepo
}

func NewVendorHandler(s *repository.ShopRepo, inv *repository.InventoryRepo, cat *repository.CatalogRepo,
	cats *repository.CategoryRepo, b *repository.BookingRepo) *VendorHandler {
	return &VendorHandler{Shops: s, Inventory: inv, Catalog: cat, Categories: cats, Bookings: b}
}

// VendorDashboard is the data of vendor/dashboard.html.  HasShop is false
// for an approved vendor whose shop has not been created yet.
type VendorDashboard struct {
	HasShop  bool
	Shop     model.Shop
	Stats    repository.ListingStats
	Bookings repository.BookingCounts
	Recent   []repository.BookingRow
	Listings []repository.ListingRow
	Pager    Pager
}

// Dashboard renders GET /vendor/dashboard.php.
func (h *VendorHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := middleware.CurrentIdentity(c)

	var page VendorDashboard
	shop, err := h.Shops.GetByOwner(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return render(c, http.StatusOK, "vendor/dashboard.html", "Vendor dashboard", page)
	}
	if err != nil {
		return serverError("load vendor shop", err)
	}
	page.HasShop, page.Shop = true, shop

	if page.Stats, err = h.Inventory.Stats(ctx, shop.ID); err != nil {
		return serverError("listing stats", err)
	}
	if page.Bookings, err = h.Bookings.Counts(ctx, shop.ID); err != nil {
		return serverError("booking counts", err)
	}
	if page.Recent, err = h.Bookings.Recent(ctx, shop.ID, 5); err != nil {
		return serverError("recent bookings", err)
	}
	pg := pageOf(c, 20)
	var total int64
	page.Listings, total, err = h.Inventory.List(ctx, repository.ListingFilter{ShopID: shop.ID}, pg)
	if err != nil {
		return serverError("list vendor listings", err)
	}
	page.Pager = newPager(c, total, pg)
	return render(c, http.StatusOK, "vendor/dashboard.html", "Vendor dashboard", page)
}

var listingDone = map[model.ListingAction]string{
	model.ListingDisable: "Listing has been disabled.",
	model.ListingEnable:  "Listing has been enabled.",
	model.ListingDelete:  "Listing has been removed.",
}

// Act applies POST /vendor/dashboard.php to one of the vendor's own
// listings.  A listing of another shop is refused with 403.
func (h *VendorHandler) Act(c echo.Context) error {
	action, err := model.ParseListingAction(c.FormValue("action"))
	if err != nil {
		addFlash(c, flashError, "Invalid action.")
		return redirect(c, vendorDashboardPath)
	}
	invID := formID(c.FormValue("inventory_id"))
	if invID == 0 {
		addFlash(c, flashError, "Invalid listing ID.")
		return redirect(c, vendorDashboardPath)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	shop, err := h.Shops.GetByOwner(ctx, middleware.CurrentIdentity(c).UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusForbidden, "You do not have a shop yet.")
	}
	if err != nil {
		return serverError("load vendor shop", err)
	}

	err = h.Inventory.ModerateOwn(ctx, shop.ID, invID, action)
	if errors.Is(err, repository.ErrForbidden) {
		zap.L().Warn("vendor touched foreign listing",
			zap.Uint64("shop_id", shop.ID), zap.Uint64("inventory_id", invID))
		return echo.NewHTTPError(http.StatusForbidden, "You can only manage your own listings.")
	}
	flashOutcome(c, err, listingDone[action], "vendor listing action")
	return redirect(c, vendorDashboardPath)
}

// AddEquipmentPage is the data of vendor/add-equipment.html.
type AddEquipmentPage struct {
	Categories []model.Category
	Brands     []string
	Form       addEquipmentForm
	Errors     []string
}

type addEquipmentForm struct {
	CategoryID  uint64
	Brand       string
	EquipmentID uint64 `validate:"required"`
	Quantity    string `validate:"omitempty,number"`
	DailyRate   string `validate:"required,numeric"`
	WeeklyRate  string `validate:"omitempty,numeric"`
	MonthlyRate string `validate:"omitempty,numeric"`
	Deposit     string `validate:"omitempty,numeric"`
	Delivery    bool
}

var addEquipmentMessages = map[string]string{
	"EquipmentID.required": "Please select a valid equipment model.",
	"Quantity.number":      "Available quantity must be a whole number.",
	"DailyRate.required":   "Daily rate must be greater than 0.",
	"DailyRate.numeric":    "Daily rate must be greater than 0.",
	"WeeklyRate.numeric":   "Weekly rate must be a number.",
	"MonthlyRate.numeric":  "Monthly rate must be a number.",
	"Deposit.numeric":      "Deposit must be a number.",
}

func (h *VendorHandler) addEquipmentPage(c echo.Context, f addEquipmentForm, problems []string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cats, err := h.Categories.List(ctx)
	if err != nil {
		return serverError("list categories", err)
	}
	brands, err := h.Catalog.Brands(ctx)
	if err != nil {
		return serverError("list brands", err)
	}
	return render(c, http.StatusOK, "vendor/add-equipment.html", "Add equipment", AddEquipmentPage{
		Categories: cats, Brands: brands, Form: f, Errors: problems,
	})
}

// ShowAddEquipment renders GET /vendor/add-equipment.php.
func (h *VendorHandler) ShowAddEquipment(c echo.Context) error {
	return h.addEquipmentPage(c, addEquipmentForm{Quantity: "1"}, nil)
}

// AddEquipment lists a catalog model in the vendor's shop.
func (h *VendorHandler) AddEquipment(c echo.Context) error {
	f := addEquipmentForm{
		CategoryID:  formID(c.FormValue("category_id")),
		Brand:       strings.TrimSpace(c.FormValue("brand")),
		EquipmentID: formID(c.FormValue("equipment_id")),
		Quantity:    strings.TrimSpace(c.FormValue("quantity")),
		DailyRate:   strings.TrimSpace(c.FormValue("daily_rate")),
		WeeklyRate:  strings.TrimSpace(c.FormValue("weekly_rate")),
		MonthlyRate: strings.TrimSpace(c.FormValue("monthly_rate")),
		Deposit:     strings.TrimSpace(c.FormValue("deposit")),
		Delivery:    c.FormValue("delivery_available") != "",
	}

	in, problems := f.listing()
	if len(problems) > 0 {
		return h.addEquipmentPage(c, f, problems)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	shop, err := h.Shops.GetByOwner(ctx, middleware.CurrentIdentity(c).UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return h.addEquipmentPage(c, f, []string{"Your shop is not set up yet. Please contact support."})
	}
	if err != nil {
		return serverError("load vendor shop", err)
	}

	if _, err := h.Inventory.Add(ctx, shop.ID, in); err != nil {
		var ve *repository.ValidationError
		if errors.As(err, &ve) {
			return h.addEquipmentPage(c, f, ve.Problems)
		}
		if msg, ok := userMessage(err); ok {
			return h.addEquipmentPage(c, f, []string{msg})
		}
		return serverError("add listing", err)
	}
	addFlash(c, flashSuccess, "Equipment added successfully! Your listing is now live.")
	return redirect(c, vendorDashboardPath)
}

// listing validates and converts the submitted strings.  Range rules
// beyond a positive daily rate are left to the repository.
func (f addEquipmentForm) listing() (repository.NewListing, []string) {
	if err := utils.ValidateStruct(f); err != nil {
		return repository.NewListing{}, utils.Messages(err, addEquipmentMessages)
	}
	in := repository.NewListing{EquipmentID: f.EquipmentID, DeliveryAvailable: f.Delivery}

	if f.Quantity != "" {
		qty, err := strconv.Atoi(f.Quantity)
		if err != nil {
			return in, []string{addEquipmentMessages["Quantity.number"]}
		}
		in.Quantity = qty
	}

	daily, err := decimal.NewFromString(f.DailyRate)
	if err != nil || !daily.IsPositive() {
		return in, []string{addEquipmentMessages["DailyRate.numeric"]}
	}
	in.DailyRate = daily.Round(2)

	for _, opt := range []struct {
		raw string
		dst *decimal.NullDecimal
	}{
		{f.WeeklyRate, &in.WeeklyRate},
		{f.MonthlyRate, &in.MonthlyRate},
		{f.Deposit, &in.Deposit},
	} {
		if opt.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(opt.raw)
		if err != nil {
			return in, []string{"Rates and deposit must be numbers."}
		}
		*opt.dst = decimal.NewNullDecimal(d.Round(2))
	}
	return in, nil
}

// Models answers GET /api/get-models.php for the add-equipment picker.
func (h *VendorHandler) Models(c echo.Context) error {
	catID := formID(c.QueryParam("category_id"))
	brand := strings.TrimSpace(c.QueryParam("brand"))
	if catID == 0 || brand == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid category or brand."})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	models, err := h.Catalog.Models(ctx, catID, brand)
	if err != nil {
		zap.L().Error("load models failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Failed to load models."})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "models": models})
}
