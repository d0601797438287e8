package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// maxExportRows caps one CSV export.
const maxExportRows = 10000

// LogsPage is the data of admin/logs.html.
type LogsPage struct {
	Action    string
	AdminID   uint64
	Search    string
	DateFrom  string
	DateTo    string
	Actions   []model.AuditAction
	Admins    []repository.AdminOption
	Logs      []model.AdminLog
	Pager     Pager
	ExportURL string
	Errors    []string
}

// logFilter reads the viewer filters.  Dates are calendar days in the
// configured zone; a malformed date is reported and ignored.
func (h *AdminHandler) logFilter(c echo.Context) (repository.LogFilter, LogsPage) {
	page := LogsPage{
		Action:    c.QueryParam("action"),
		AdminID:   formID(c.QueryParam("admin_id")),
		Search:    strings.TrimSpace(c.QueryParam("search")),
		DateFrom:  strings.TrimSpace(c.QueryParam("date_from")),
		DateTo:    strings.TrimSpace(c.QueryParam("date_to")),
		Actions:   model.AuditActions,
		ExportURL: "/admin/logs.csv",
	}
	if q := c.QueryString(); q != "" {
		page.ExportURL += "?" + q
	}
	f := repository.LogFilter{Action: page.Action, AdminID: page.AdminID, Search: page.Search}
	loc := h.Cfg.Location()
	if page.DateFrom != "" {
		d, err := time.ParseInLocation("2006-01-02", page.DateFrom, loc)
		if err != nil {
			page.Errors = append(page.Errors, "Invalid start date.")
		}
		f.DateFrom = d
	}
	if page.DateTo != "" {
		d, err := time.ParseInLocation("2006-01-02", page.DateTo, loc)
		if err != nil {
			page.Errors = append(page.Errors, "Invalid end date.")
		}
		f.DateTo = d
	}
	return f, page
}

// LogsIndex renders GET /admin/logs.php, 20 entries a page.
func (h *AdminHandler) LogsIndex(c echo.Context) error {
	f, page := h.logFilter(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	var err error
	if page.Admins, err = h.Logs.Admins(ctx); err != nil {
		return serverError("list admins", err)
	}
	pg := pageOf(c, 20)
	var total int64
	if page.Logs, total, err = h.Logs.List(ctx, f, pg); err != nil {
		return serverError("list admin logs", err)
	}
	page.Pager = newPager(c, total, pg)
	return render(c, http.StatusOK, "admin/logs.html", "Audit log", page)
}

type logCSVRow struct {
	ID         uint64 `csv:"id"`
	CreatedAt  string `csv:"created_at"`
	Admin      string `csv:"admin"`
	Action     string `csv:"action"`
	TargetUser string `csv:"target_user"`
	Equipment  string `csv:"equipment"`
	Details    string `csv:"details"`
	IPAddress  string `csv:"ip_address"`
}

// ExportLogs streams GET /admin/logs.csv with the viewer's filters.
func (h *AdminHandler) ExportLogs(c echo.Context) error {
	f, _ := h.logFilter(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	logs, err := h.Logs.Export(ctx, f, maxExportRows)
	if err != nil {
		return serverError("export admin logs", err)
	}

	loc := h.Cfg.Location()
	rows := make([]logCSVRow, 0, len(logs))
	for _, l := range logs {
		row := logCSVRow{
			ID:        l.ID,
			CreatedAt: l.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			Admin:     l.AdminName.String,
			Action:    string(l.Action),
			Details:   l.Details,
			IPAddress: l.IPAddress,
		}
		if l.TargetUserID.Valid {
			row.TargetUser = fmt.Sprintf("%s (#%d)", l.TargetUserName.String, l.TargetUserID.Int64)
		}
		if l.TargetEquipmentID.Valid {
			row.Equipment = fmt.Sprintf("%s (#%d)", l.EquipmentName.String, l.TargetEquipmentID.Int64)
		}
		rows = append(rows, row)
	}

	name := fmt.Sprintf("admin-logs-%s.csv", h.Now().In(loc).Format("20060102-150405"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	res.WriteHeader(http.StatusOK)
	if err := gocsv.Marshal(rows, res); err != nil {
		zap.L().Error("csv export aborted", zap.Error(err))
	}
	return nil
}
