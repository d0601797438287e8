package repository

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SearchRepo answers the public equipment search and records queries in
// the search analytics table.
type SearchRepo struct{ db *sql.DB }

func NewSearchRepo(db *sql.DB) *SearchRepo { return &SearchRepo{db: db} }

// SearchQuery defines filters & pagination for searching listings.
// Validation of Term/City combinations happens in the handler; the
// repository accepts any combination.
type SearchQuery struct {
	Term       string
	City       string
	CategoryID uint64
	Limit      int
	Offset     int
}

// SearchResult is one available listing as returned by the search API.
type SearchResult struct {
	InventoryID       uint64              `json:"inventory_id"`
	EquipmentID       uint64              `json:"equipment_id"`
	EquipmentName     string              `json:"equipment_name"`
	Brand             string              `json:"brand"`
	Model             string              `json:"model"`
	Description       string              `json:"description"`
	Condition         string              `json:"condition"`
	ImageURL          string              `json:"image_url"`
	DailyRate         decimal.Decimal     `json:"daily_rate_lkr"`
	WeeklyRate        decimal.NullDecimal `json:"weekly_rate_lkr"`
	MonthlyRate       decimal.NullDecimal `json:"monthly_rate_lkr"`
	Deposit           decimal.NullDecimal `json:"deposit_required_lkr"`
	AvailableQuantity int                 `json:"available_quantity"`
	DeliveryAvailable bool                `json:"delivery_available"`
	ShopID            uint64              `json:"shop_id"`
	ShopName          string              `json:"shop_name"`
	ShopCity          string              `json:"shop_city"`
	ShopPhone         string              `json:"shop_phone"`
	ShopWhatsApp      string              `json:"shop_whatsapp"`
	AverageRating     float64             `json:"average_rating"`
	ReviewCount       int                 `json:"review_count"`
	Categories        string              `json:"categories"`
}

func (q SearchQuery) predicates() predicates {
	var p predicates
	p.add("i.available_quantity > 0")
	p.add("s.kind = 'vendor'")
	p.add("s.is_active = 1")
	p.contains(q.Term, "e.equipment_name", "e.brand", "e.model_number", "e.description")
	if city := strings.TrimSpace(q.City); city != "" {
		p.add("s.primary_city = ?", city)
	}
	if q.CategoryID > 0 {
		p.add("e.category_id = ?", q.CategoryID)
	}
	return p
}

const searchFrom = ` FROM inventory i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN equipment_categories c ON c.id = e.category_id
		JOIN shops s ON s.id = i.shop_id
		WHERE `

// Search returns available listings ordered by exact brand match (when a
// term is given), then ascending daily rate, then descending shop rating.
func (r *SearchRepo) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	p := q.predicates()

	order := "i.daily_rate_lkr ASC, s.average_rating DESC, i.id ASC"
	args := p.with()
	if term := strings.ToLower(strings.TrimSpace(q.Term)); term != "" {
		order = "CASE WHEN LOWER(e.brand) = ? THEN 0 ELSE 1 END, " + order
		args = append(args, term)
	}
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, `SELECT i.id, e.id, e.equipment_name, e.brand, e.model_number,
			COALESCE(e.description,''), e.equipment_condition, COALESCE(e.image_url,''),
			i.daily_rate_lkr, i.weekly_rate_lkr, i.monthly_rate_lkr, i.deposit_required_lkr,
			i.available_quantity, i.delivery_available,
			s.id, s.shop_name, s.primary_city, s.phone, COALESCE(s.whatsapp_number,''),
			s.average_rating, s.total_reviews, c.category_name`+
		searchFrom+p.sql()+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SearchResult, 0, q.Limit)
	for rows.Next() {
		var d SearchResult
		if err := rows.Scan(&d.InventoryID, &d.EquipmentID, &d.EquipmentName, &d.Brand, &d.Model,
			&d.Description, &d.Condition, &d.ImageURL,
			&d.DailyRate, &d.WeeklyRate, &d.MonthlyRate, &d.Deposit,
			&d.AvailableQuantity, &d.DeliveryAvailable,
			&d.ShopID, &d.ShopName, &d.ShopCity, &d.ShopPhone, &d.ShopWhatsApp,
			&d.AverageRating, &d.ReviewCount, &d.Categories); err != nil {
			return nil, err
		}
		d.AverageRating = math.Round(d.AverageRating*10) / 10
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many listings match q, ignoring Limit/Offset.
func (r *SearchRepo) Count(ctx context.Context, q SearchQuery) (int64, error) {
	p := q.predicates()
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+searchFrom+p.sql(), p.args...).Scan(&total)
	return total, err
}

// Ping reports whether the database is reachable.
func (r *SearchRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// LogSearch appends one row to search_logs.
func (r *SearchRepo) LogSearch(ctx context.Context, term, city string, resultCount int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO search_logs (search_term, search_city, result_count, created_at) VALUES (?,?,?,?)",
		term, city, resultCount, at.UTC())
	return err
}

// TopSearch is a search term and how often it was used.
type TopSearch struct {
	Term  string
	Count int64
}

// TopTerms returns the most frequent non-empty search terms since a time.
func (r *SearchRepo) TopTerms(ctx context.Context, since time.Time, limit int) ([]TopSearch, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT LOWER(search_term) AS term, COUNT(*) AS n
		FROM search_logs
		WHERE search_term <> '' AND created_at >= ?
		GROUP BY LOWER(search_term)
		ORDER BY n DESC, term ASC
		LIMIT ?`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopSearch
	for rows.Next() {
		var t TopSearch
		if err := rows.Scan(&t.Term, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
