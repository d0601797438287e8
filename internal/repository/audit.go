package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// auditEntry is one admin_logs row to be written inside the caller's
// transaction, so the journal never records a mutation that rolled back.
type auditEntry struct {
	actor       model.Actor
	action      model.AuditAction
	targetUser  uint64
	targetEquip uint64
	details     map[string]any
	at          time.Time
}

func writeAuditTx(ctx context.Context, tx *sql.Tx, e auditEntry) error {
	if e.details == nil {
		e.details = map[string]any{}
	}
	if _, ok := e.details["timestamp"]; !ok {
		e.details["timestamp"] = e.at.Format(time.RFC3339)
	}
	payload, err := json.Marshal(e.details)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO admin_logs (admin_user_id, action_type, target_user_id, target_equipment_id, action_details, ip_address, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		e.actor.UserID, string(e.action), nullID(e.targetUser), nullID(e.targetEquip), string(payload), e.actor.IP, e.at)
	return err
}

// nullID maps 0 to SQL NULL.
func nullID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

// nullStr maps "" to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}
