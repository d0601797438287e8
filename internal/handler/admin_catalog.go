package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/assets"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

const catalogPath = "/admin/manage-master-gear.php"

type catalogForm struct {
	ID             uint64
	CategoryID     uint64 `validate:"required"`
	Name           string `validate:"required,max=255"`
	Brand          string `validate:"required,max=100"`
	ModelNumber    string `validate:"max=100"`
	EquipmentType  string `validate:"max=100"`
	Specifications string
	ImageURL       string `validate:"required,max=255"`
	Description    string `validate:"max=2000"`
	Condition      string `validate:"oneof=Excellent Good Fair"`
}

var catalogMessages = map[string]string{
	"CategoryID.required": "Category is required.",
	"Name.required":       "Equipment name is required.",
	"Name.max":            "Equipment name must not exceed 255 characters.",
	"Brand.required":      "Brand is required.",
	"Brand.max":           "Brand must not exceed 100 characters.",
	"ModelNumber.max":     "Model number must not exceed 100 characters.",
	"EquipmentType.max":   "Equipment type must not exceed 100 characters.",
	"ImageURL.required":   "Image path is required.",
	"ImageURL.max":        "Image path must not exceed 255 characters.",
	"Description.max":     "Description must not exceed 2000 characters.",
	"Condition.oneof":     "Invalid condition selected.",
}

func catalogFormOf(c echo.Context) catalogForm {
	f := catalogForm{
		ID:             formID(c.FormValue("equipment_id")),
		CategoryID:     formID(c.FormValue("category_id")),
		Name:           strings.TrimSpace(c.FormValue("equipment_name")),
		Brand:          strings.TrimSpace(c.FormValue("brand")),
		ModelNumber:    strings.TrimSpace(c.FormValue("model_number")),
		EquipmentType:  strings.TrimSpace(c.FormValue("equipment_type")),
		Specifications: strings.TrimSpace(c.FormValue("specifications")),
		ImageURL:       strings.TrimSpace(c.FormValue("image_url")),
		Description:    strings.TrimSpace(c.FormValue("description")),
		Condition:      strings.TrimSpace(c.FormValue("condition")),
	}
	if f.Condition == "" {
		f.Condition = string(model.ConditionGood)
	}
	return f
}

func catalogFormFrom(e model.Equipment) catalogForm {
	return catalogForm{
		ID:             e.ID,
		CategoryID:     e.CategoryID,
		Name:           e.Name,
		Brand:          e.Brand,
		ModelNumber:    e.ModelNumber,
		EquipmentType:  e.EquipmentType.String,
		Specifications: e.Specifications.String,
		ImageURL:       e.ImageURL.String,
		Description:    e.Description.String,
		Condition:      string(e.Condition),
	}
}

// validateCatalog runs the field rules, then the specification and image
// checks that need more than a tag.
func validateCatalog(f catalogForm, lib assets.Library) []string {
	problems := utils.Messages(utils.ValidateStruct(f), catalogMessages)
	if s := f.Specifications; strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		if !json.Valid([]byte(s)) {
			problems = append(problems, "Specifications must be valid JSON or plain text.")
		}
	}
	if f.ImageURL != "" && len(f.ImageURL) <= 255 {
		if _, err := lib.Resolve(f.ImageURL); err != nil {
			problems = append(problems, "Image path must point to a valid file in /assets/images/.")
		}
	}
	return problems
}

func (f catalogForm) input() repository.CatalogInput {
	return repository.CatalogInput{
		CategoryID:     f.CategoryID,
		Name:           f.Name,
		Brand:          f.Brand,
		ModelNumber:    f.ModelNumber,
		EquipmentType:  f.EquipmentType,
		Specifications: f.Specifications,
		ImageURL:       f.ImageURL,
		Description:    f.Description,
		Condition:      model.Condition(f.Condition),
	}
}

// CatalogPage is the data of admin/catalog.html.
type CatalogPage struct {
	Filter     repository.CatalogFilter
	Categories []model.Category
	Conditions []model.Condition
	Rows       []repository.CatalogRow
	Pager      Pager
	Images     []assets.Image
	Form       catalogForm
	Editing    bool
	Errors     []string
}

func (h *AdminHandler) catalogPage(c echo.Context, code int, form catalogForm, editing bool, problems []string) error {
	f := repository.CatalogFilter{
		CategoryID: formID(c.QueryParam("category")),
		Search:     strings.TrimSpace(c.QueryParam("search")),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page := CatalogPage{Filter: f, Conditions: model.Conditions, Form: form, Editing: editing, Errors: problems}
	var err error
	if page.Categories, err = h.Categories.List(ctx); err != nil {
		return serverError("list categories", err)
	}
	pg := pageOf(c, 25)
	var total int64
	if page.Rows, total, err = h.Catalog.List(ctx, f, pg); err != nil {
		return serverError("list catalog", err)
	}
	page.Pager = newPager(c, total, pg)
	if page.Images, err = h.Images.Scan(); err != nil && !errors.Is(err, assets.ErrNoImageDir) {
		zap.L().Warn("image scan failed", zap.Error(err))
	}
	return render(c, code, "admin/catalog.html", "Master catalog", page)
}

// CatalogIndex renders GET /admin/manage-master-gear.php; ?edit=<id>
// preloads the form with a template.
func (h *AdminHandler) CatalogIndex(c echo.Context) error {
	form := catalogForm{Condition: string(model.ConditionGood)}
	editing := false
	if id := formID(c.QueryParam("edit")); id > 0 {
		ctx, cancel := reqCtx(c)
		e, err := h.Catalog.Get(ctx, id)
		cancel()
		switch {
		case errors.Is(err, repository.ErrNotFound):
			addFlash(c, flashError, "Equipment not found.")
			return redirect(c, catalogPath)
		case err != nil:
			return serverError("load catalog entry", err)
		}
		form, editing = catalogFormFrom(e), true
	}
	return h.catalogPage(c, http.StatusOK, form, editing, nil)
}

// CatalogAction applies POST /admin/manage-master-gear.php.
func (h *AdminHandler) CatalogAction(c echo.Context) error {
	action, err := model.ParseCatalogAction(c.FormValue("action"))
	if err != nil {
		addFlash(c, flashError, "Invalid action.")
		return redirect(c, catalogPath)
	}
	switch action {
	case model.CatalogDelete:
		return h.deleteCatalog(c)
	default:
		return h.saveCatalog(c)
	}
}

func (h *AdminHandler) deleteCatalog(c echo.Context) error {
	id := formID(c.FormValue("equipment_id"))
	if id == 0 {
		addFlash(c, flashError, "Unable to delete this item.")
		return redirect(c, catalogPath)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Catalog.Delete(ctx, actorOf(c), id)
	flashOutcome(c, err, "Master gear removed successfully and logged.", "delete catalog entry")
	return redirect(c, catalogPath)
}

func (h *AdminHandler) saveCatalog(c echo.Context) error {
	f := catalogFormOf(c)
	editing := f.ID > 0
	if problems := validateCatalog(f, h.Images); len(problems) > 0 {
		return h.catalogPage(c, http.StatusOK, f, editing, problems)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	actor := actorOf(c)

	var (
		msg string
		err error
	)
	if editing {
		var changed bool
		changed, err = h.Catalog.Update(ctx, actor, f.ID, f.input())
		msg = "Master gear updated successfully and logged."
		if err == nil && !changed {
			msg = "No changes detected."
		}
	} else {
		_, err = h.Catalog.Create(ctx, actor, f.input())
		msg = "Master gear added successfully and logged."
	}
	if err != nil {
		var ve *repository.ValidationError
		if errors.As(err, &ve) {
			return h.catalogPage(c, http.StatusOK, f, editing, ve.Problems)
		}
		if text, ok := userMessage(err); ok {
			return h.catalogPage(c, http.StatusOK, f, editing, []string{text})
		}
		return serverError("save catalog entry", err)
	}
	addFlash(c, flashSuccess, msg)
	return redirect(c, catalogPath)
}

// ImagesAPI answers GET /api/get-available-images.php.
func (h *AdminHandler) ImagesAPI(c echo.Context) error {
	images, err := h.Images.Scan()
	if errors.Is(err, assets.ErrNoImageDir) {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Images directory not found"})
	}
	if err != nil {
		zap.L().Error("image scan failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to list images"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(images), "images": images})
}
