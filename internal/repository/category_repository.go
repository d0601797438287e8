package repository

import (
	"context"
	"database/sql"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, category_name FROM equipment_categories ORDER BY category_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryBreakdown is the number of listings per category.
type CategoryBreakdown struct {
	Category  string
	Templates int64
	Listings  int64
	Available int64
}

// Breakdown counts catalog templates and vendor listings per category.
func (r *CategoryRepo) Breakdown(ctx context.Context) ([]CategoryBreakdown, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.category_name,
			(SELECT COUNT(*) FROM equipment e WHERE e.category_id = c.id),
			(SELECT COUNT(*) FROM inventory i JOIN equipment e ON e.id = i.equipment_id WHERE e.category_id = c.id),
			(SELECT COUNT(*) FROM inventory i JOIN equipment e ON e.id = i.equipment_id
				WHERE e.category_id = c.id AND i.available_quantity > 0)
		FROM equipment_categories c
		ORDER BY c.category_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryBreakdown
	for rows.Next() {
		var b CategoryBreakdown
		if err := rows.Scan(&b.Category, &b.Templates, &b.Listings, &b.Available); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
