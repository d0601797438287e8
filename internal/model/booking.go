package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the state of a booking request.  Requests are created
// pending and only change if staff update them out of band.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Rental duration bounds accepted by the booking endpoint.
const (
	MinRentalDays = 1
	MaxRentalDays = 365
)

// BookingRequest represents a row of `booking_requests`: a rental inquiry
// recorded when a customer hands off to WhatsApp.
type BookingRequest struct {
	ID             uint64          // booking_requests.id
	UserName       string          // booking_requests.user_name
	UserContact    sql.NullString  // booking_requests.user_contact
	UserEmail      sql.NullString  // booking_requests.user_email
	EquipmentID    uint64          // booking_requests.equipment_id
	ShopID         uint64          // booking_requests.shop_id
	StartDate      sql.NullTime    // booking_requests.rental_start_date
	DurationDays   int             // booking_requests.rental_duration_days
	Notes          sql.NullString  // booking_requests.additional_notes
	Status         BookingStatus   // booking_requests.request_status
	EstimatedTotal decimal.Decimal // booking_requests.estimated_total_lkr
	WhatsAppSent   bool            // booking_requests.whatsapp_sent
	CreatedAt      time.Time       // booking_requests.created_at
}

// EstimateTotal returns daily rate × days without floating-point drift.
func EstimateTotal(daily decimal.Decimal, days int) decimal.Decimal {
	return daily.Mul(decimal.NewFromInt(int64(days)))
}
