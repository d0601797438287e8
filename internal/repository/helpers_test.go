package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/dbtest"
	"github.com/lankanlens/rental-marketplace/internal/model"
)

var admin = model.Actor{UserID: 900, IP: "203.0.113.7"}

type loggedAction struct {
	Action  string
	Details map[string]any
	Target  sql.NullInt64
	Equip   sql.NullInt64
}

func lastLog(t *testing.T, db *sql.DB) loggedAction {
	t.Helper()
	var (
		l   loggedAction
		raw string
	)
	err := db.QueryRow(`SELECT action_type, action_details, target_user_id, target_equipment_id
		FROM admin_logs ORDER BY id DESC LIMIT 1`).Scan(&l.Action, &raw, &l.Target, &l.Equip)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &l.Details))
	return l
}

func logCount(t *testing.T, db *sql.DB) int { return dbtest.Count(t, db, "admin_logs", "") }

func quantities(t *testing.T, db *sql.DB, id uint64) (available, total int) {
	t.Helper()
	require.NoError(t, db.QueryRow("SELECT available_quantity, total_quantity FROM inventory WHERE id=?", id).
		Scan(&available, &total))
	return available, total
}

func ctx() context.Context { return context.Background() }
