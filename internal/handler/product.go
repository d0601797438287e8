package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/auth"
	"github.com/lankanlens/rental-marketplace/internal/config"
	"github.com/lankanlens/rental-marketplace/internal/middleware"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

// ProductHandler renders the listing detail page.
type ProductHandler struct {
	Cfg       config.Config
	Inventory *repository.InventoryRepo
}

func NewProductHandler(cfg config.Config, inv *repository.InventoryRepo) *ProductHandler {
	return &ProductHandler{Cfg: cfg, Inventory: inv}
}

// Spec is one line of the specification table.
type Spec struct {
	Name  string
	Value string
}

// ProductPage is the data of product.html.  Shop contact details are
// only filled in for signed-in visitors.
type ProductPage struct {
	Listing      repository.ListingRow
	Equipment    model.Equipment
	Shop         model.Shop
	Specs        []Spec
	SpecText     string
	ShowContact  bool
	WhatsAppLink string
	LoginURL     string
}

// Show renders GET /public/product.php?id=<inventory id>.
func (h *ProductHandler) Show(c echo.Context) error {
	id := formID(c.QueryParam("id"))
	if id == 0 {
		return redirect(c, "/public/index.php")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, e, sh, err := h.Inventory.Detail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Equipment not found.")
	}
	if err != nil {
		return serverError("load product", err)
	}

	page := ProductPage{
		Listing:     l,
		Equipment:   e,
		Shop:        sh,
		ShowContact: middleware.CurrentIdentity(c).Authenticated(),
		LoginURL:    auth.RedirectLogin.Location(c.Request().URL.RequestURI()),
	}
	page.Specs, page.SpecText = parseSpecs(e.Specifications.String)
	if page.ShowContact {
		msg := fmt.Sprintf("Hi %s, I'm interested in renting the %s %s listed on %s. Is it available?",
			sh.ShopName, e.Brand, e.Name, h.Cfg.AppName)
		page.WhatsAppLink = utils.WhatsAppLink(h.Cfg.WhatsAppBase, sh.ContactNumber(), msg)
	}
	return render(c, http.StatusOK, "product.html", e.Name, page)
}

// parseSpecs turns a JSON object of specifications into sorted rows.
// Anything else is returned as plain text.
func parseSpecs(raw string) ([]Spec, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	var obj map[string]any
	if !strings.HasPrefix(raw, "{") || json.Unmarshal([]byte(raw), &obj) != nil {
		return nil, raw
	}
	out := make([]Spec, 0, len(obj))
	for k, v := range obj {
		out = append(out, Spec{Name: strings.ReplaceAll(k, "_", " "), Value: fmt.Sprint(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, ""
}
