package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/repository"
	"github.com/lankanlens/rental-marketplace/internal/utils"
)

// BookingHandler records rental inquiries sent from the product and
// results pages before the WhatsApp hand-off.
type BookingHandler struct {
	Bookings *repository.BookingRepo
}

func NewBookingHandler(b *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Bookings: b}
}

// bookingRequest is the validated shape of an inquiry.  Ids arrive as
// numbers or strings, so they are checked as decimal digit strings; a
// value of "0" reads as missing.
type bookingRequest struct {
	EquipmentID string `validate:"required,ne=0,number"`
	ShopID      string `validate:"required,ne=0,number"`
	Days        int    `validate:"required,min=1,max=365"`
	UserName    string `validate:"required,min=2,max=255"`
	Notes       string `validate:"max=1000"`
	UserEmail   string `validate:"omitempty,email,max=255"`
	StartDate   string `validate:"omitempty,datetime=2006-01-02"`
	UserContact string `validate:"max=20"`
}

// bookingRequired lists the required fields in the order the
// missing-fields message names them.
var bookingRequired = []struct{ field, name string }{
	{"UserName", "user_name"},
	{"EquipmentID", "equipment_id"},
	{"ShopID", "shop_id"},
	{"Days", "rental_duration_days"},
}

var bookingMessages = map[string]string{
	"EquipmentID.number": "Invalid equipment_id",
	"ShopID.number":      "Invalid shop_id",
	"Days.min":           "Rental duration must be between 1 and 365 days",
	"Days.max":           "Rental duration must be between 1 and 365 days",
	"UserName.min":       "User name must be between 2 and 255 characters",
	"UserName.max":       "User name must be between 2 and 255 characters",
	"Notes.max":          "Additional notes must not exceed 1000 characters",
	"UserEmail.email":    "Invalid email format",
	"UserEmail.max":      "Invalid email format",
	"StartDate.datetime": "Invalid rental start date. Use YYYY-MM-DD",
	"UserContact.max":    "Contact number must not exceed 20 characters",
}

func bookingError(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"success": false, "error": msg})
}

// bookingFields binds a JSON object or form body.  Values stay loosely
// typed: clients send ids both as numbers and strings.  A body that does
// not bind reads as empty.
func bookingFields(c echo.Context) map[string]any {
	m := map[string]any{}
	if err := c.Bind(&m); err != nil {
		return map[string]any{}
	}
	return m
}

func field(data map[string]any, key string) string {
	return strings.TrimSpace(cast.ToString(data[key]))
}

// wholeDays parses a decimal day count.  Blank is 0, which reads as
// missing; anything that is not a whole decimal number is -1, which
// fails the range check.
func wholeDays(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// bookingProblem returns the first message for a failed bookingRequest,
// naming every missing field before any other failure.
func bookingProblem(err error) string {
	absent := utils.Failing(err, "required", "ne")
	var missing []string
	for _, f := range bookingRequired {
		if absent[f.field] {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return "Missing required fields: " + strings.Join(missing, ", ")
	}
	return utils.Messages(err, bookingMessages)[0]
}

// Create answers POST /api/booking-api.php.
func (h *BookingHandler) Create(c echo.Context) error {
	data := bookingFields(c)
	req := bookingRequest{
		EquipmentID: field(data, "equipment_id"),
		ShopID:      field(data, "shop_id"),
		Days:        wholeDays(field(data, "rental_duration_days")),
		UserName:    field(data, "user_name"),
		Notes:       field(data, "additional_notes"),
		UserEmail:   field(data, "user_email"),
		StartDate:   field(data, "rental_start_date"),
		UserContact: field(data, "user_contact"),
	}
	if err := utils.ValidateStruct(req); err != nil {
		return bookingError(c, http.StatusBadRequest, bookingProblem(err))
	}

	in := repository.NewBooking{
		UserName:     req.UserName,
		UserContact:  req.UserContact,
		UserEmail:    req.UserEmail,
		Notes:        req.Notes,
		DurationDays: req.Days,
	}
	var err error
	if in.EquipmentID, err = strconv.ParseUint(req.EquipmentID, 10, 64); err != nil || in.EquipmentID == 0 {
		return bookingError(c, http.StatusBadRequest, "Invalid equipment_id")
	}
	if in.ShopID, err = strconv.ParseUint(req.ShopID, 10, 64); err != nil || in.ShopID == 0 {
		return bookingError(c, http.StatusBadRequest, "Invalid shop_id")
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return bookingError(c, http.StatusBadRequest, "Invalid rental start date. Use YYYY-MM-DD")
		}
		in.StartDate = &start
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Bookings.Create(ctx, in)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return bookingError(c, http.StatusNotFound, "Equipment not found or does not belong to specified shop")
	case errors.Is(err, repository.ErrUnavailable):
		return bookingError(c, http.StatusBadRequest, "Equipment is currently unavailable")
	case err != nil:
		zap.L().Error("booking insert failed", zap.Error(err),
			zap.Uint64("equipment_id", in.EquipmentID), zap.Uint64("shop_id", in.ShopID))
		return bookingError(c, http.StatusInternalServerError, "Database error occurred. Please try again later.")
	}

	zap.L().Info("booking request",
		zap.Uint64("request_id", out.RequestID),
		zap.String("user", in.UserName),
		zap.String("equipment", out.EquipmentName),
		zap.String("shop", out.ShopName),
		zap.Int("days", out.DurationDays),
		zap.String("total_lkr", out.EstimatedTotal.StringFixed(2)),
	)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Booking request logged successfully",
		"data":    out,
	})
}
