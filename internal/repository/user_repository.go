package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, full_name, email, password_hash, role, status, shop_name, phone, whatsapp_number,
	failed_login_attempts, last_failed_login, last_login_at, remember_token, approved_by, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.ShopName, &u.Phone, &u.WhatsApp,
		&u.FailedLoginAttempts, &u.LastFailedLogin, &u.LastLoginAt, &u.RememberToken, &u.ApprovedBy, &u.CreatedAt)
	return u, err
}

// NewUser carries the columns set at registration.
type NewUser struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         model.Role
	Status       model.Status
	ShopName     string
	Phone        string
}

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u NewUser) (uint64, error) {
	email := NormalizeEmail(u.Email)
	exists, err := r.EmailExists(ctx, email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrEmailExists
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, role, status, shop_name, phone, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(u.FullName), email, u.PasswordHash, string(u.Role), string(u.Status),
		nullStr(strings.TrimSpace(u.ShopName)), nullStr(strings.TrimSpace(u.Phone)), time.Now().UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// EmailExists reports whether an account already uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email=?", NormalizeEmail(email)).Scan(&n)
	return n > 0, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByRememberToken fetches the user holding a remember-me token.
func (r *UserRepo) GetByRememberToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, sql.ErrNoRows
	}
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE remember_token=? LIMIT 1", token))
}

// RecordFailedLogin bumps the failure counter and stamps the attempt.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts = failed_login_attempts + 1, last_failed_login=? WHERE id=?",
		at.UTC(), id)
	return err
}

// RecordSuccessfulLogin clears the failure counter and stamps the login.
func (r *UserRepo) RecordSuccessfulLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=0, last_failed_login=NULL, last_login_at=? WHERE id=?",
		at.UTC(), id)
	return err
}

// SetRememberToken stores token on the user row; "" clears it.
func (r *UserRepo) SetRememberToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET remember_token=? WHERE id=?", nullStr(token), id)
	return err
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role   string // "" or a model.Role
	Status string // "" or a model.Status
	Search string // matches name or email
}

// List returns one page of users matching f, newest first, and the total.
func (r *UserRepo) List(ctx context.Context, f UserFilter, pg Page) ([]model.User, int64, error) {
	pg = pg.normalized(20)
	var p predicates
	if role := model.Role(f.Role); role.Valid() {
		p.add("role = ?", string(role))
	}
	if st := model.Status(f.Status); st.Valid() {
		p.add("status = ?", string(st))
	}
	p.contains(f.Search, "full_name", "email")

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+p.sql(), p.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+p.sql()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		p.with(pg.Size, pg.offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.User, 0, pg.Size)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UserCounts summarises accounts for the admin screens.
type UserCounts struct {
	Total          int64
	Customers      int64
	Vendors        int64
	Admins         int64
	PendingVendors int64
	Suspended      int64
}

// Counts returns account totals by role and status.
func (r *UserRepo) Counts(ctx context.Context) (UserCounts, error) {
	var c UserCounts
	err := r.DB.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN role='customer' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN role='vendor' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN role='admin' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN role='vendor' AND status='pending' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN status='suspended' THEN 1 ELSE 0 END),0)
		FROM users`).Scan(&c.Total, &c.Customers, &c.Vendors, &c.Admins, &c.PendingVendors, &c.Suspended)
	return c, err
}

// approvalsOnly refuses account moderation of vendors still in, or
// rejected by, the approval workflow.
const approvalsOnly = "Pending or rejected vendors are handled on the vendor approvals page."

// Moderate applies a suspend/activate/delete to target on behalf of actor
// and journals it, all in one transaction.  Admins cannot act on their
// own account.  Suspend only leaves active and activate only leaves
// suspended; pending and rejected vendors move through Approve/Reject.
func (r *UserRepo) Moderate(ctx context.Context, actor model.Actor, target uint64, action model.UserAction) error {
	if target == 0 || target == actor.UserID {
		return invalidState("Invalid user or cannot modify yourself.")
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=?", target))
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("User not found.")
		}
		if err != nil {
			return err
		}

		var res sql.Result
		switch action {
		case model.UserSuspend:
			switch u.Status {
			case model.StatusSuspended:
				return invalidState("User is already suspended.")
			case model.StatusActive:
			default:
				return invalidState(approvalsOnly)
			}
			res, err = tx.ExecContext(ctx,
				"UPDATE users SET status='suspended' WHERE id=? AND status='active'", target)
		case model.UserActivate:
			switch u.Status {
			case model.StatusActive:
				return invalidState("User is already active.")
			case model.StatusSuspended:
			default:
				return invalidState(approvalsOnly)
			}
			res, err = tx.ExecContext(ctx,
				"UPDATE users SET status='active' WHERE id=? AND status='suspended'", target)
		case model.UserDelete:
			res, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", target)
		default:
			return invalidState("Unsupported action.")
		}
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return invalidState("User was modified by someone else. Please reload and try again.")
		}

		details := map[string]any{
			"full_name":       u.FullName,
			"email":           u.Email,
			"previous_status": string(u.Status),
		}
		if action == model.UserDelete {
			details["role"] = string(u.Role)
		}
		return writeAuditTx(ctx, tx, auditEntry{
			actor:      actor,
			action:     action.Audit(),
			targetUser: target,
			details:    details,
			at:         time.Now().UTC(),
		})
	})
}
