// Package dbtest opens throwaway SQLite databases with the application
// schema so repository and handler tests run their real SQL.
package dbtest

import (
	"database/sql"
	_ "embed"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// CatalogShopID is the id of the seeded catalog shop.
const CatalogShopID uint64 = 1

// Open returns an in-memory database loaded with the schema.  The pool is
// pinned to one connection because every SQLite :memory: connection is a
// separate database.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("load schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// User is the subset of columns tests usually care about.
type User struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	ShopName     string
	Phone        string
	WhatsApp     string
}

// InsertUser adds a user row and returns its id.
func InsertUser(t testing.TB, db *sql.DB, u User) uint64 {
	t.Helper()
	if u.FullName == "" {
		u.FullName = "Test User"
	}
	if u.PasswordHash == "" {
		u.PasswordHash = "x"
	}
	if u.Role == "" {
		u.Role = "customer"
	}
	if u.Status == "" {
		u.Status = "active"
	}
	return insert(t, db,
		`INSERT INTO users (full_name, email, password_hash, role, status, shop_name, phone, whatsapp_number)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.FullName, u.Email, u.PasswordHash, u.Role, u.Status,
		nullable(u.ShopName), nullable(u.Phone), nullable(u.WhatsApp))
}

// InsertShop adds a vendor shop and returns its id.
func InsertShop(t testing.TB, db *sql.DB, name, city string, rating float64, owner uint64) uint64 {
	t.Helper()
	var ownerArg any
	if owner != 0 {
		ownerArg = owner
	}
	return insert(t, db,
		`INSERT INTO shops (kind, owner_user_id, shop_name, primary_city, phone, whatsapp_number, is_active, average_rating, total_reviews)
		 VALUES ('vendor',?,?,?,'0771234567','+94 77 123 4567',1,?,3)`,
		ownerArg, name, city, rating)
}

// InsertTemplate adds a catalog equipment template and returns its id.
func InsertTemplate(t testing.TB, db *sql.DB, categoryID uint64, name, brand, model string) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO equipment (shop_id, category_id, equipment_name, brand, model_number, image_url, description, equipment_condition)
		 VALUES (?,?,?,?,?,'/assets/images/placeholder.jpg','test gear','Good')`,
		CatalogShopID, categoryID, name, brand, model)
}

// InsertInventory adds a listing and returns its id.  dailyRate is a
// decimal string such as "4500.00".
func InsertInventory(t testing.TB, db *sql.DB, equipmentID, shopID uint64, available, total int, dailyRate string) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO inventory (equipment_id, shop_id, available_quantity, total_quantity, daily_rate_lkr, delivery_available, created_at)
		 VALUES (?,?,?,?,?,0,?)`,
		equipmentID, shopID, available, total, dailyRate, time.Now().UTC())
}

// Count returns SELECT COUNT(*) for the given table and optional WHERE.
func Count(t testing.TB, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func insert(t testing.TB, db *sql.DB, q string, args ...any) uint64 {
	t.Helper()
	res, err := db.Exec(q, args...)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return uint64(id)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
