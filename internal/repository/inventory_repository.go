package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// InventoryRepo manages listings: a vendor shop's stock and pricing for
// one catalog model.
type InventoryRepo struct{ db *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

const inventoryColumns = `i.id, i.equipment_id, i.shop_id, i.available_quantity, i.total_quantity, i.daily_rate_lkr,
	i.weekly_rate_lkr, i.monthly_rate_lkr, i.deposit_required_lkr, i.delivery_available, i.created_at`

func inventoryDest(i *model.Inventory) []any {
	return []any{&i.ID, &i.EquipmentID, &i.ShopID, &i.AvailableQuantity, &i.TotalQuantity, &i.DailyRate,
		&i.WeeklyRate, &i.MonthlyRate, &i.Deposit, &i.DeliveryAvailable, &i.CreatedAt}
}

// ListingRow is an inventory row joined with its model, category and shop.
type ListingRow struct {
	Inventory    model.Inventory
	Name         string
	Brand        string
	ModelNumber  string
	ImageURL     string
	CategoryID   uint64
	CategoryName string
	ShopName     string
	ShopCity     string
}

const listingSelect = `SELECT ` + inventoryColumns + `, e.equipment_name, e.brand, e.model_number, COALESCE(e.image_url,''),
		c.id, c.category_name, s.shop_name, s.primary_city`

const listingFrom = ` FROM inventory i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN equipment_categories c ON c.id = e.category_id
		JOIN shops s ON s.id = i.shop_id`

func scanListing(s rowScanner) (ListingRow, error) {
	var l ListingRow
	dest := append(inventoryDest(&l.Inventory), &l.Name, &l.Brand, &l.ModelNumber, &l.ImageURL,
		&l.CategoryID, &l.CategoryName, &l.ShopName, &l.ShopCity)
	err := s.Scan(dest...)
	return l, err
}

// ListingFilter narrows the admin listings page.
type ListingFilter struct {
	CategoryID uint64
	Status     string // available | unavailable | "" / all
	Search     string // equipment name, brand or shop name
	ShopID     uint64 // restrict to one shop (vendor dashboard)
}

func (f ListingFilter) predicates() predicates {
	var p predicates
	if f.CategoryID > 0 {
		p.add("e.category_id = ?", f.CategoryID)
	}
	if f.ShopID > 0 {
		p.add("i.shop_id = ?", f.ShopID)
	}
	switch f.Status {
	case "available":
		p.add("i.available_quantity > 0")
	case "unavailable":
		p.add("i.available_quantity = 0")
	}
	p.contains(f.Search, "e.equipment_name", "e.brand", "s.shop_name")
	return p
}

// List returns one page of listings matching f and the total count.
func (r *InventoryRepo) List(ctx context.Context, f ListingFilter, pg Page) ([]ListingRow, int64, error) {
	pg = pg.normalized(20)
	p := f.predicates()
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+listingFrom+" WHERE "+p.sql(), p.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, listingSelect+listingFrom+" WHERE "+p.sql()+`
		ORDER BY i.created_at DESC, i.id DESC LIMIT ? OFFSET ?`, p.with(pg.Size, pg.offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []ListingRow
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// ListingStats are the counters above the listings table.
type ListingStats struct {
	Total       int64
	Available   int64
	Unavailable int64
	Units       int64 // sum of total_quantity
}

// Stats counts listings, optionally for one shop (0 = all shops).
func (r *InventoryRepo) Stats(ctx context.Context, shopID uint64) (ListingStats, error) {
	var p predicates
	if shopID > 0 {
		p.add("shop_id = ?", shopID)
	}
	var s ListingStats
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN available_quantity > 0 THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN available_quantity = 0 THEN 1 ELSE 0 END),0),
			COALESCE(SUM(total_quantity),0)
		FROM inventory WHERE `+p.sql(), p.args...).Scan(&s.Total, &s.Available, &s.Unavailable, &s.Units)
	return s, err
}

// Detail returns one listing, for the product page.
func (r *InventoryRepo) Detail(ctx context.Context, inventoryID uint64) (ListingRow, model.Equipment, model.Shop, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, listingSelect+listingFrom+" WHERE i.id = ?", inventoryID))
	if errors.Is(err, sql.ErrNoRows) {
		return l, model.Equipment{}, model.Shop{}, ErrNotFound
	}
	if err != nil {
		return l, model.Equipment{}, model.Shop{}, err
	}
	e, err := scanEquipment(r.db.QueryRowContext(ctx, "SELECT "+equipmentColumns+" FROM equipment e WHERE e.id = ?", l.Inventory.EquipmentID))
	if err != nil {
		return l, e, model.Shop{}, err
	}
	sh, err := scanShop(r.db.QueryRowContext(ctx, "SELECT "+shopColumns+" FROM shops WHERE id = ?", l.Inventory.ShopID))
	return l, e, sh, err
}

// listingSnapshot is what the audit journal records about a listing so
// the entry stays readable after the model or shop changes.
type listingSnapshot struct {
	inv         model.Inventory
	name        string
	brand       string
	modelNumber string
	shopName    string
}

func (r *InventoryRepo) snapshotTx(ctx context.Context, tx *sql.Tx, id uint64) (listingSnapshot, error) {
	var s listingSnapshot
	dest := append(inventoryDest(&s.inv), &s.name, &s.brand, &s.modelNumber, &s.shopName)
	err := tx.QueryRowContext(ctx, `SELECT `+inventoryColumns+`, e.equipment_name, e.brand, e.model_number, s.shop_name
		FROM inventory i
		JOIN equipment e ON e.id = i.equipment_id
		JOIN shops s ON s.id = i.shop_id
		WHERE i.id = ?`, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return s, notFound("Listing not found.")
	}
	return s, err
}

// Moderate applies an admin disable/enable/delete to a listing and
// journals it in the same transaction.
func (r *InventoryRepo) Moderate(ctx context.Context, actor model.Actor, inventoryID uint64, action model.ListingAction) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		snap, err := r.snapshotTx(ctx, tx, inventoryID)
		if err != nil {
			return err
		}
		if err := applyListingAction(ctx, tx, inventoryID, action); err != nil {
			return err
		}
		details := map[string]any{
			"inventory_id":       inventoryID,
			"equipment_name":     snap.name,
			"brand":              snap.brand,
			"model_number":       snap.modelNumber,
			"shop_name":          snap.shopName,
			"available_quantity": snap.inv.AvailableQuantity,
			"total_quantity":     snap.inv.TotalQuantity,
		}
		if action == model.ListingDelete {
			details["daily_rate_lkr"] = snap.inv.DailyRate.StringFixed(2)
		}
		return writeAuditTx(ctx, tx, auditEntry{
			actor:       actor,
			action:      action.Audit(),
			targetEquip: snap.inv.EquipmentID,
			details:     details,
			at:          time.Now().UTC(),
		})
	})
}

// ModerateOwn applies a vendor's action to one of their own listings.
// Vendor self-service is not journalled.
func (r *InventoryRepo) ModerateOwn(ctx context.Context, shopID, inventoryID uint64, action model.ListingAction) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		snap, err := r.snapshotTx(ctx, tx, inventoryID)
		if err != nil {
			return err
		}
		if snap.inv.ShopID != shopID {
			return ErrForbidden
		}
		return applyListingAction(ctx, tx, inventoryID, action)
	})
}

// applyListingAction performs the guarded write.  Each statement carries
// its own precondition so a concurrent change shows up as zero rows
// affected instead of a lost update.
func applyListingAction(ctx context.Context, tx *sql.Tx, id uint64, action model.ListingAction) error {
	var (
		res sql.Result
		err error
	)
	switch action {
	case model.ListingDisable:
		res, err = tx.ExecContext(ctx, "UPDATE inventory SET available_quantity = 0 WHERE id = ?", id)
	case model.ListingEnable:
		res, err = tx.ExecContext(ctx,
			"UPDATE inventory SET available_quantity = total_quantity WHERE id = ? AND total_quantity > 0", id)
		if err == nil {
			if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
				return invalidState("Cannot enable listing with zero quantity.")
			}
		}
	case model.ListingDelete:
		res, err = tx.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
	default:
		return invalidState("Unsupported action.")
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Listing not found.")
	}
	return nil
}

// NewListing is a vendor's request to stock a catalog model.
type NewListing struct {
	EquipmentID       uint64
	Quantity          int
	DailyRate         decimal.Decimal
	WeeklyRate        decimal.NullDecimal
	MonthlyRate       decimal.NullDecimal
	Deposit           decimal.NullDecimal
	DeliveryAvailable bool
}

// Add creates a listing for shopID.  The model must come from the master
// catalog and the shop may list it only once.
func (r *InventoryRepo) Add(ctx context.Context, shopID uint64, in NewListing) (uint64, error) {
	var problems []string
	if !in.DailyRate.IsPositive() {
		problems = append(problems, "Daily rate must be greater than zero.")
	}
	if in.Quantity < 0 {
		problems = append(problems, "Quantity cannot be negative.")
	}
	for _, opt := range []decimal.NullDecimal{in.WeeklyRate, in.MonthlyRate, in.Deposit} {
		if opt.Valid && opt.Decimal.IsNegative() {
			problems = append(problems, "Rates and deposit cannot be negative.")
			break
		}
	}
	if len(problems) > 0 {
		return 0, &ValidationError{Problems: problems}
	}

	var id uint64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment e JOIN shops s ON s.id = e.shop_id
			WHERE e.id = ? AND s.kind = 'catalog'`, in.EquipmentID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return &ValidationError{Problems: []string{"Please select equipment from the Master Catalog."}}
		}
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory WHERE shop_id = ? AND equipment_id = ?",
			shopID, in.EquipmentID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return conflict("You have already listed this equipment. Update the existing listing instead.")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (equipment_id, shop_id, available_quantity, total_quantity, daily_rate_lkr,
				weekly_rate_lkr, monthly_rate_lkr, deposit_required_lkr, delivery_available, created_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			in.EquipmentID, shopID, in.Quantity, in.Quantity, in.DailyRate, in.WeeklyRate, in.MonthlyRate,
			in.Deposit, in.DeliveryAvailable, time.Now().UTC())
		if err != nil {
			if isDuplicateKey(err) {
				return conflict("You have already listed this equipment. Update the existing listing instead.")
			}
			return err
		}
		newID, err := res.LastInsertId()
		id = uint64(newID)
		return err
	})
	return id, err
}
