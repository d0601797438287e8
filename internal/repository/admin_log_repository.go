package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// AdminLogRepo reads the admin action journal.  Rows are written by the
// mutating repositories inside their own transactions.
type AdminLogRepo struct{ db *sql.DB }

func NewAdminLogRepo(db *sql.DB) *AdminLogRepo { return &AdminLogRepo{db: db} }

// LogFilter narrows the log viewer.  DateFrom and DateTo are inclusive
// calendar days in loc; zero values leave the range open.
type LogFilter struct {
	Action   string
	AdminID  uint64
	Search   string
	DateFrom time.Time
	DateTo   time.Time
}

func (f LogFilter) predicates() predicates {
	var p predicates
	if a := model.AuditAction(f.Action); a.Valid() {
		p.add("l.action_type = ?", string(a))
	}
	if f.AdminID > 0 {
		p.add("l.admin_user_id = ?", f.AdminID)
	}
	if !f.DateFrom.IsZero() {
		p.add("l.created_at >= ?", f.DateFrom.UTC())
	}
	if !f.DateTo.IsZero() {
		p.add("l.created_at < ?", f.DateTo.AddDate(0, 0, 1).UTC())
	}
	p.contains(f.Search, "l.action_details", "a.full_name", "t.full_name", "e.equipment_name")
	return p
}

const logFrom = ` FROM admin_logs l
		LEFT JOIN users a ON a.id = l.admin_user_id
		LEFT JOIN users t ON t.id = l.target_user_id
		LEFT JOIN equipment e ON e.id = l.target_equipment_id
		WHERE `

// List returns one page of journal entries, newest first, and the total.
func (r *AdminLogRepo) List(ctx context.Context, f LogFilter, pg Page) ([]model.AdminLog, int64, error) {
	pg = pg.normalized(20)
	p := f.predicates()
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+logFrom+p.sql(), p.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	out, err := r.query(ctx, p, pg.Size, pg.offset())
	return out, total, err
}

// Export returns up to limit entries matching f, newest first.
func (r *AdminLogRepo) Export(ctx context.Context, f LogFilter, limit int) ([]model.AdminLog, error) {
	return r.query(ctx, f.predicates(), limit, 0)
}

// Recent returns the newest n entries.
func (r *AdminLogRepo) Recent(ctx context.Context, n int) ([]model.AdminLog, error) {
	return r.query(ctx, predicates{}, n, 0)
}

func (r *AdminLogRepo) query(ctx context.Context, p predicates, limit, offset int) ([]model.AdminLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT l.id, l.admin_user_id, l.action_type, l.target_user_id, l.target_equipment_id,
			COALESCE(l.action_details,''), l.ip_address, l.created_at, a.full_name, t.full_name, e.equipment_name`+
		logFrom+p.sql()+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?`, p.with(limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AdminLog
	for rows.Next() {
		var l model.AdminLog
		if err := rows.Scan(&l.ID, &l.AdminUserID, &l.Action, &l.TargetUserID, &l.TargetEquipmentID,
			&l.Details, &l.IPAddress, &l.CreatedAt, &l.AdminName, &l.TargetUserName, &l.EquipmentName); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AdminOption is an admin account offered in the log viewer filter.
type AdminOption struct {
	ID   uint64
	Name string
}

// Admins lists admin accounts for the filter dropdown.
func (r *AdminLogRepo) Admins(ctx context.Context) ([]AdminOption, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, full_name FROM users WHERE role='admin' ORDER BY full_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdminOption
	for rows.Next() {
		var a AdminOption
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
