package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// ShopRepo reads shops.  Shops are created by the vendor approval
// workflow (see VendorRepo.Approve); the catalog shop is seeded.
type ShopRepo struct{ db *sql.DB }

func NewShopRepo(db *sql.DB) *ShopRepo { return &ShopRepo{db: db} }

const shopColumns = `id, kind, owner_user_id, shop_name, description, primary_city, phone, whatsapp_number, email,
	is_active, average_rating, total_reviews, created_at`

func scanShop(s rowScanner) (model.Shop, error) {
	var sh model.Shop
	err := s.Scan(&sh.ID, &sh.Kind, &sh.OwnerUserID, &sh.ShopName, &sh.Description, &sh.City, &sh.Phone,
		&sh.WhatsApp, &sh.Email, &sh.IsActive, &sh.AverageRating, &sh.TotalReviews, &sh.CreatedAt)
	return sh, err
}

// GetByID returns a shop or ErrNotFound.
func (r *ShopRepo) GetByID(ctx context.Context, id uint64) (model.Shop, error) {
	sh, err := scanShop(r.db.QueryRowContext(ctx, "SELECT "+shopColumns+" FROM shops WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return sh, ErrNotFound
	}
	return sh, err
}

// GetByOwner returns the vendor shop owned by userID or ErrNotFound.
func (r *ShopRepo) GetByOwner(ctx context.Context, userID uint64) (model.Shop, error) {
	sh, err := scanShop(r.db.QueryRowContext(ctx,
		"SELECT "+shopColumns+" FROM shops WHERE kind='vendor' AND owner_user_id=? ORDER BY id LIMIT 1", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return sh, ErrNotFound
	}
	return sh, err
}

// CatalogID returns the id of the catalog shop.
func (r *ShopRepo) CatalogID(ctx context.Context) (uint64, error) {
	return catalogShopID(ctx, r.db)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func catalogShopID(ctx context.Context, q queryRower) (uint64, error) {
	var id uint64
	err := q.QueryRowContext(ctx, "SELECT id FROM shops WHERE kind='catalog' ORDER BY id LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.New("catalog shop is missing; load internal/database/schema.sql")
	}
	return id, err
}

// ShopCounts summarises vendor shops.
type ShopCounts struct {
	Total  int64
	Active int64
}

// Counts returns vendor shop totals.
func (r *ShopRepo) Counts(ctx context.Context) (ShopCounts, error) {
	var c ShopCounts
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END),0)
		FROM shops WHERE kind='vendor'`).Scan(&c.Total, &c.Active)
	return c, err
}

// findOrCreateVendorShopTx returns the shop belonging to vendor u, claiming
// an unowned shop with the declared name or creating one.  created is true
// only when a new row was inserted.
func findOrCreateVendorShopTx(ctx context.Context, tx *sql.Tx, u model.User, now time.Time) (shopID uint64, name string, created bool, err error) {
	name = u.ShopName.String
	if name == "" {
		name = u.FullName
	}

	err = tx.QueryRowContext(ctx,
		"SELECT id, shop_name FROM shops WHERE kind='vendor' AND owner_user_id=? ORDER BY id LIMIT 1", u.ID).
		Scan(&shopID, &name)
	if err == nil {
		return shopID, name, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, err
	}

	err = tx.QueryRowContext(ctx,
		"SELECT id FROM shops WHERE kind='vendor' AND owner_user_id IS NULL AND shop_name=? ORDER BY id LIMIT 1", name).
		Scan(&shopID)
	if err == nil {
		_, err = tx.ExecContext(ctx, "UPDATE shops SET owner_user_id=? WHERE id=?", u.ID, shopID)
		return shopID, name, false, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, err
	}

	phone := "0000000000"
	switch {
	case u.Phone.Valid && u.Phone.String != "":
		phone = u.Phone.String
	case u.WhatsApp.Valid && u.WhatsApp.String != "":
		phone = u.WhatsApp.String
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO shops (kind, owner_user_id, shop_name, description, primary_city, phone, whatsapp_number, email, is_active, created_at)
		 VALUES ('vendor',?,?,?,?,?,?,?,?,?)`,
		u.ID, name, "Vendor shop for "+name, model.DefaultCity, phone, nullStr(u.WhatsApp.String), u.Email, true, now)
	if err != nil {
		return 0, "", false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", false, err
	}
	return uint64(id), name, true, nil
}
