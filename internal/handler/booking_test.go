package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/dbtest"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

type bookingReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    struct {
		RequestID      uint64          `json:"request_id"`
		EquipmentName  string          `json:"equipment_name"`
		ShopName       string          `json:"shop_name"`
		EstimatedTotal decimal.Decimal `json:"estimated_total_lkr"`
		Status         string          `json:"request_status"`
	} `json:"data"`
}

func postBooking(t *testing.T, m market, body string) (int, bookingReply) {
	t.Helper()
	h := NewBookingHandler(repository.NewBookingRepo(m.db))
	rec := serve(t, newEcho(t), h.Create, request{method: http.MethodPost, target: "/api/booking-api.php", json: body})
	var out bookingReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestBookingValidation(t *testing.T) {
	m := seedMarket(t)
	ok := func(extra string) string {
		return fmt.Sprintf(`{"user_name":"Nimal Perera","equipment_id":%d,"shop_id":%d,"rental_duration_days":3%s}`,
			m.alpha, m.shop, extra)
	}
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"nothing", `{}`, "Missing required fields: user_name, equipment_id, shop_id, rental_duration_days"},
		{"zero days", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":0}`, m.alpha, m.shop),
			"Missing required fields: rental_duration_days"},
		{"too long", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":400}`, m.alpha, m.shop),
			"Rental duration must be between 1 and 365 days"},
		{"negative days", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":-2}`, m.alpha, m.shop),
			"Rental duration must be between 1 and 365 days"},
		{"bad equipment", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":"abc","shop_id":%d,"rental_duration_days":2}`, m.shop),
			"Invalid equipment_id"},
		{"short name", fmt.Sprintf(`{"user_name":"N","equipment_id":%d,"shop_id":%d,"rental_duration_days":2}`, m.alpha, m.shop),
			"User name must be between 2 and 255 characters"},
		{"bad email", ok(`,"user_email":"nimal-at-example"`), "Invalid email format"},
		{"bad date", ok(`,"rental_start_date":"2026/11/02"`), "Invalid rental start date. Use YYYY-MM-DD"},
		{"long notes", ok(`,"additional_notes":"` + strings.Repeat("x", 1001) + `"`), "Additional notes must not exceed 1000 characters"},
		{"fractional days", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":2.5}`, m.alpha, m.shop),
			"Rental duration must be between 1 and 365 days"},
		{"fractional days text", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":"2.5"}`, m.alpha, m.shop),
			"Rental duration must be between 1 and 365 days"},
		{"hex equipment", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":"0x%x","shop_id":%d,"rental_duration_days":2}`, m.alpha, m.shop),
			"Invalid equipment_id"},
		{"fractional shop", fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d.5,"rental_duration_days":2}`, m.alpha, m.shop),
			"Invalid shop_id"},
		{"missing before invalid", `{"equipment_id":"abc"}`, "Missing required fields: user_name, shop_id, rental_duration_days"},
		{"long contact", ok(`,"user_contact":"` + strings.Repeat("7", 21) + `"`), "Contact number must not exceed 20 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out := postBooking(t, m, tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, out.Success)
			assert.Equal(t, tc.msg, out.Error)
		})
	}
	assert.Equal(t, 0, dbtest.Count(t, m.db, "booking_requests", ""))
}

func TestBookingCreated(t *testing.T) {
	m := seedMarket(t)
	body := fmt.Sprintf(`{"user_name":"Nimal Perera","user_contact":"0771234567","equipment_id":"%d","shop_id":%d,
		"rental_duration_days":"3","rental_start_date":"2026-11-02"}`, m.alpha, m.shop)

	code, out := postBooking(t, m, body)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, out.Success)
	assert.Equal(t, "Booking request logged successfully", out.Message)
	assert.NotZero(t, out.Data.RequestID)
	assert.Equal(t, "Alpha A7 IV", out.Data.EquipmentName)
	assert.Equal(t, "Lens Hub", out.Data.ShopName)
	assert.Equal(t, "3703.71", out.Data.EstimatedTotal.StringFixed(2))
	assert.Equal(t, "pending", out.Data.Status)
	assert.Equal(t, 1, dbtest.Count(t, m.db, "booking_requests", "rental_duration_days = 3"))
}

func TestBookingNumbersAreDecimal(t *testing.T) {
	m := seedMarket(t)
	body := fmt.Sprintf(`{"user_name":"Nimal Perera","equipment_id":"%d","shop_id":"%d","rental_duration_days":"010"}`,
		m.alpha, m.shop)

	code, out := postBooking(t, m, body)
	require.Equal(t, http.StatusCreated, code, out.Error)
	assert.Equal(t, "12345.70", out.Data.EstimatedTotal.StringFixed(2))
	assert.Equal(t, 1, dbtest.Count(t, m.db, "booking_requests", "rental_duration_days = 10"))
}

func TestBookingFormEncoded(t *testing.T) {
	m := seedMarket(t)
	h := NewBookingHandler(repository.NewBookingRepo(m.db))
	rec := serve(t, newEcho(t), h.Create, request{method: http.MethodPost, target: "/api/booking-api.php", form: url.Values{
		"user_name":            {"Nimal Perera"},
		"equipment_id":         {fmt.Sprint(m.alpha)},
		"shop_id":              {fmt.Sprint(m.shop)},
		"rental_duration_days": {"1"},
	}})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBookingListingLookup(t *testing.T) {
	m := seedMarket(t)

	// the alpha template is not stocked by the rival shop
	code, out := postBooking(t, m, fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":2}`,
		m.alpha, m.rivalShop))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Equipment not found or does not belong to specified shop", out.Error)

	_, err := m.db.Exec("UPDATE inventory SET available_quantity = 0 WHERE id = ?", m.alphaInv)
	require.NoError(t, err)
	code, out = postBooking(t, m, fmt.Sprintf(`{"user_name":"Nimal","equipment_id":%d,"shop_id":%d,"rental_duration_days":2}`,
		m.alpha, m.shop))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Equipment is currently unavailable", out.Error)
}
