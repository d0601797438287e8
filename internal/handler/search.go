package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/config"
	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

// apiSearchLimit caps the rows returned by the search API.
const apiSearchLimit = 50

// SearchHandler serves the home page, the results page and the search API.
type SearchHandler struct {
	Cfg        config.Config
	Search     *repository.SearchRepo
	Categories *repository.CategoryRepo
	Now        func() time.Time
}

func NewSearchHandler(cfg config.Config, s *repository.SearchRepo, cats *repository.CategoryRepo) *SearchHandler {
	return &SearchHandler{Cfg: cfg, Search: s, Categories: cats, Now: time.Now}
}

// searchInput is the filter shared by the API and the results page.  The
// API binds it from JSON and the results page from the query string.
// Either a term or a city is needed; a given term is 2 to 100 characters
// and a given date is YYYY-MM-DD.
type searchInput struct {
	Term       string `json:"search_term" query:"q" validate:"omitempty,min=2,max=100"`
	City       string `json:"city" query:"city" validate:"required_without=Term,max=100"`
	RentalDate string `json:"rental_date" query:"date" validate:"omitempty,datetime=2006-01-02"`
	CategoryID uint64 `json:"category_id"`
}

var searchMessages = map[string]string{
	"Term.min":              "Search term must be at least 2 characters.",
	"Term.max":              "Search term must not exceed 100 characters.",
	"City.required_without": "Please enter a search term or choose a city.",
	"City.max":              "Please choose a city from the list.",
	"RentalDate.datetime":   "Invalid date format. Use YYYY-MM-DD.",
}

// check trims the input and returns the first validation message, or "".
func (in *searchInput) check() string {
	in.Term = strings.TrimSpace(in.Term)
	in.City = strings.TrimSpace(in.City)
	in.RentalDate = strings.TrimSpace(in.RentalDate)
	if err := utils.ValidateStruct(in); err != nil {
		return utils.Messages(err, searchMessages)[0]
	}
	return ""
}

func (in searchInput) query(limit, offset int) repository.SearchQuery {
	return repository.SearchQuery{Term: in.Term, City: in.City, CategoryID: in.CategoryID, Limit: limit, Offset: offset}
}

type searchResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Results []repository.SearchResult `json:"results"`
	Count   int                       `json:"count"`
}

func searchFailure(c echo.Context, code int, msg string) error {
	return c.JSON(code, searchResponse{Message: msg, Results: []repository.SearchResult{}})
}

// API answers POST /api/search-api.php with up to 50 available listings.
func (h *SearchHandler) API(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return searchFailure(c, http.StatusMethodNotAllowed, "Method not allowed. Use POST.")
	}
	var in searchInput
	if c.Request().ContentLength == 0 {
		return searchFailure(c, http.StatusBadRequest, "Invalid JSON input.")
	}
	if err := c.Bind(&in); err != nil {
		return searchFailure(c, http.StatusBadRequest, "Invalid JSON input.")
	}
	if msg := in.check(); msg != "" {
		return searchFailure(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Search.Ping(ctx); err != nil {
		zap.L().Error("search: database unreachable", zap.Error(err))
		return searchFailure(c, http.StatusServiceUnavailable, "Database connection failed. Please try again later.")
	}
	results, err := h.Search.Search(ctx, in.query(apiSearchLimit, 0))
	if err != nil {
		zap.L().Error("search failed", zap.Error(err), zap.String("term", in.Term), zap.String("city", in.City))
		return searchFailure(c, http.StatusInternalServerError, "Search failed. Please try again later.")
	}
	h.logSearch(ctx, in, len(results))

	msg := "Search completed successfully."
	if len(results) == 0 {
		msg = "No results found for your search."
	}
	return c.JSON(http.StatusOK, searchResponse{Success: true, Message: msg, Results: results, Count: len(results)})
}

// logSearch records the query for analytics.  Failures are logged only.
func (h *SearchHandler) logSearch(ctx context.Context, in searchInput, n int) {
	if err := h.Search.LogSearch(ctx, in.Term, in.City, n, h.Now()); err != nil {
		zap.L().Warn("search log insert failed", zap.Error(err))
	}
}

// HomePage is the data of index.html.
type HomePage struct {
	Cities     []string
	Categories []model.Category
	City       string
	Today      string
}

// Index renders the search form.
func (h *SearchHandler) Index(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cats, err := h.Categories.List(ctx)
	if err != nil {
		return serverError("list categories", err)
	}
	return render(c, http.StatusOK, "index.html", "Rent camera gear across Sri Lanka", HomePage{
		Cities:     model.Cities,
		Categories: cats,
		City:       model.DefaultCity,
		Today:      h.Now().In(h.Cfg.Location()).Format("2006-01-02"),
	})
}

// ResultsPage is the data of results.html.
type ResultsPage struct {
	Term       string
	City       string
	Date       string
	CategoryID uint64
	Cities     []string
	Categories []model.Category
	Results    []repository.SearchResult
	Error      string
	Pager      Pager
}

// Results renders GET /public/results.php, ItemsPerPage listings a page.
func (h *SearchHandler) Results(c echo.Context) error {
	var in searchInput
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &in); err != nil {
		return echo.ErrBadRequest
	}
	in.CategoryID = formID(c.QueryParam("category"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return serverError("list categories", err)
	}
	msg := in.check()
	page := ResultsPage{
		Term: in.Term, City: in.City, Date: in.RentalDate, CategoryID: in.CategoryID,
		Cities: model.Cities, Categories: cats, Error: msg,
	}
	if msg != "" {
		return render(c, http.StatusOK, "results.html", "Search results", page)
	}

	size := h.Cfg.ItemsPerPage
	if size <= 0 {
		size = 12
	}
	pg := pageOf(c, size)
	total, err := h.Search.Count(ctx, in.query(0, 0))
	if err == nil {
		page.Results, err = h.Search.Search(ctx, in.query(pg.Size, (pg.Number-1)*pg.Size))
	}
	if err != nil {
		zap.L().Error("results page search failed", zap.Error(err))
		page.Error = "Search failed. Please try again later."
		return render(c, http.StatusOK, "results.html", "Search results", page)
	}
	page.Pager = newPager(c, total, pg)
	return render(c, http.StatusOK, "results.html", "Search results", page)
}
