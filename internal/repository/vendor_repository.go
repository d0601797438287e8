package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// VendorRepo runs the vendor application workflow.
type VendorRepo struct{ db *sql.DB }

func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{db: db} }

// VendorRow is a vendor account with its shop, if one exists yet.
type VendorRow struct {
	User     model.User
	ShopID   sql.NullInt64
	ShopCity sql.NullString
}

// VendorCounts are the per-status tallies shown above the list.
type VendorCounts struct {
	Pending  int64
	Active   int64
	Rejected int64
	All      int64
}

// List returns vendors filtered by status ("" or "all" for every vendor),
// pending applications first.
func (r *VendorRepo) List(ctx context.Context, status string) ([]VendorRow, error) {
	var p predicates
	p.add("u.role = 'vendor'")
	if st := model.Status(status); st.Valid() {
		p.add("u.status = ?", string(st))
	}
	rows, err := r.db.QueryContext(ctx, `SELECT u.id, u.full_name, u.email, u.password_hash, u.role, u.status, u.shop_name,
			u.phone, u.whatsapp_number, u.failed_login_attempts, u.last_failed_login, u.last_login_at,
			u.remember_token, u.approved_by, u.created_at, s.id, s.primary_city
		FROM users u
		LEFT JOIN shops s ON s.owner_user_id = u.id AND s.kind = 'vendor'
		WHERE `+p.sql()+`
		ORDER BY CASE WHEN u.status='pending' THEN 0 ELSE 1 END, u.created_at DESC, u.id DESC`, p.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VendorRow
	for rows.Next() {
		var v VendorRow
		u := &v.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.ShopName,
			&u.Phone, &u.WhatsApp, &u.FailedLoginAttempts, &u.LastFailedLogin, &u.LastLoginAt,
			&u.RememberToken, &u.ApprovedBy, &u.CreatedAt, &v.ShopID, &v.ShopCity); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Counts returns vendor totals per status.
func (r *VendorRepo) Counts(ctx context.Context) (VendorCounts, error) {
	var c VendorCounts
	err := r.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN status='pending' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN status='active' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN status='rejected' THEN 1 ELSE 0 END),0),
			COUNT(*)
		FROM users WHERE role='vendor'`).Scan(&c.Pending, &c.Active, &c.Rejected, &c.All)
	return c, err
}

// ApproveResult reports what an approval did besides the status change.
type ApproveResult struct {
	ShopID      uint64
	ShopName    string
	ShopCreated bool
}

// Approve activates a pending vendor, creates their shop when none exists
// and journals VENDOR_APPROVE, all in one transaction.
func (r *VendorRepo) Approve(ctx context.Context, actor model.Actor, vendorID uint64) (ApproveResult, error) {
	var out ApproveResult
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := r.loadVendorTx(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		switch u.Status {
		case model.StatusPending:
		case model.StatusActive:
			return invalidState("This vendor is already approved.")
		default:
			return invalidState("Only pending vendors can be approved.")
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET status='active', approved_by=? WHERE id=? AND role='vendor' AND status='pending'",
			actor.UserID, vendorID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return invalidState("Only pending vendors can be approved.")
		}

		out.ShopID, out.ShopName, out.ShopCreated, err = findOrCreateVendorShopTx(ctx, tx, u, now)
		if err != nil {
			return err
		}

		return writeAuditTx(ctx, tx, auditEntry{
			actor:      actor,
			action:     model.AuditVendorApprove,
			targetUser: vendorID,
			details: map[string]any{
				"vendor_name":  u.FullName,
				"shop_name":    out.ShopName,
				"email":        u.Email,
				"shop_created": out.ShopCreated,
			},
			at: now,
		})
	})
	return out, err
}

// Reject moves a pending or active vendor to rejected.  The reason is
// recorded in the audit journal only.
func (r *VendorRepo) Reject(ctx context.Context, actor model.Actor, vendorID uint64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided"
	}
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := r.loadVendorTx(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		if u.Status != model.StatusPending && u.Status != model.StatusActive {
			return invalidState("This vendor cannot be rejected.")
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET status='rejected' WHERE id=? AND role='vendor' AND status IN ('pending','active')",
			vendorID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return invalidState("This vendor cannot be rejected.")
		}
		return writeAuditTx(ctx, tx, auditEntry{
			actor:      actor,
			action:     model.AuditVendorReject,
			targetUser: vendorID,
			details: map[string]any{
				"vendor_name":     u.FullName,
				"shop_name":       u.ShopName.String,
				"email":           u.Email,
				"previous_status": string(u.Status),
				"reason":          reason,
			},
			at: time.Now().UTC(),
		})
	})
}

func (r *VendorRepo) loadVendorTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) || (err == nil && u.Role != model.RoleVendor) {
		return u, notFound("Vendor not found.")
	}
	return u, err
}
