package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// BookingRepo records rental inquiries made through the WhatsApp hand-off.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ErrUnavailable is returned when the listing exists but has no stock.
var ErrUnavailable = errors.New("equipment unavailable")

// NewBooking holds validated booking request fields.
type NewBooking struct {
	UserName     string
	UserContact  string
	UserEmail    string
	EquipmentID  uint64
	ShopID       uint64
	StartDate    *time.Time
	DurationDays int
	Notes        string
}

// BookingCreated is what the API echoes back after recording a request.
type BookingCreated struct {
	RequestID      uint64          `json:"request_id"`
	EquipmentName  string          `json:"equipment_name"`
	Brand          string          `json:"brand"`
	ShopName       string          `json:"shop_name"`
	DurationDays   int             `json:"rental_duration_days"`
	DailyRate      decimal.Decimal `json:"daily_rate_lkr"`
	EstimatedTotal decimal.Decimal `json:"estimated_total_lkr"`
	Status         string          `json:"request_status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Create looks up the listing for (EquipmentID, ShopID), prices the
// request and stores it as pending.  ErrNotFound means the pair does not
// exist; ErrUnavailable that it has no stock.
func (r *BookingRepo) Create(ctx context.Context, in NewBooking) (BookingCreated, error) {
	var (
		out       BookingCreated
		available int
	)
	err := r.db.QueryRowContext(ctx, `SELECT e.equipment_name, e.brand, s.shop_name, i.daily_rate_lkr, i.available_quantity
		FROM inventory i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN shops s ON s.id = i.shop_id
		WHERE i.equipment_id = ? AND i.shop_id = ?
		LIMIT 1`, in.EquipmentID, in.ShopID).Scan(&out.EquipmentName, &out.Brand, &out.ShopName, &out.DailyRate, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if available <= 0 {
		return out, ErrUnavailable
	}

	out.DurationDays = in.DurationDays
	out.EstimatedTotal = model.EstimateTotal(out.DailyRate, in.DurationDays)
	out.Status = string(model.BookingPending)
	out.CreatedAt = time.Now().UTC().Truncate(time.Second)

	var start any
	if in.StartDate != nil {
		start = *in.StartDate
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO booking_requests (user_name, user_contact, user_email, equipment_id, shop_id, rental_start_date,
			rental_duration_days, additional_notes, request_status, estimated_total_lkr, whatsapp_sent, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		in.UserName, nullStr(in.UserContact), nullStr(in.UserEmail), in.EquipmentID, in.ShopID, start,
		in.DurationDays, nullStr(in.Notes), out.Status, out.EstimatedTotal, true, out.CreatedAt)
	if err != nil {
		return out, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return out, err
	}
	out.RequestID = uint64(id)
	return out, nil
}

// BookingRow is a booking request joined with its equipment and shop names.
type BookingRow struct {
	Booking       model.BookingRequest
	EquipmentName string
	ShopName      string
}

const bookingColumns = `b.id, b.user_name, b.user_contact, b.user_email, b.equipment_id, b.shop_id, b.rental_start_date,
	b.rental_duration_days, b.additional_notes, b.request_status, b.estimated_total_lkr, b.whatsapp_sent, b.created_at,
	COALESCE(e.equipment_name,''), COALESCE(s.shop_name,'')`

// Recent returns the newest booking requests, optionally for one shop
// (0 = every shop).
func (r *BookingRepo) Recent(ctx context.Context, shopID uint64, limit int) ([]BookingRow, error) {
	var p predicates
	if shopID > 0 {
		p.add("b.shop_id = ?", shopID)
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+bookingColumns+`
		FROM booking_requests b
		LEFT JOIN equipment e ON e.id = b.equipment_id
		LEFT JOIN shops s ON s.id = b.shop_id
		WHERE `+p.sql()+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`, p.with(limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingRow
	for rows.Next() {
		var row BookingRow
		b := &row.Booking
		if err := rows.Scan(&b.ID, &b.UserName, &b.UserContact, &b.UserEmail, &b.EquipmentID, &b.ShopID, &b.StartDate,
			&b.DurationDays, &b.Notes, &b.Status, &b.EstimatedTotal, &b.WhatsAppSent, &b.CreatedAt,
			&row.EquipmentName, &row.ShopName); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BookingCounts tallies requests by status.
type BookingCounts struct {
	Total     int64
	Pending   int64
	Confirmed int64
	Completed int64
	Cancelled int64
	Value     decimal.Decimal // sum of estimated totals
}

// Counts tallies booking requests, optionally for one shop.
func (r *BookingRepo) Counts(ctx context.Context, shopID uint64) (BookingCounts, error) {
	var p predicates
	if shopID > 0 {
		p.add("shop_id = ?", shopID)
	}
	var c BookingCounts
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN request_status='pending' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN request_status='confirmed' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN request_status='completed' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN request_status='cancelled' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(estimated_total_lkr),0)
		FROM booking_requests WHERE `+p.sql(), p.args...).
		Scan(&c.Total, &c.Pending, &c.Confirmed, &c.Completed, &c.Cancelled, &c.Value)
	return c, err
}
