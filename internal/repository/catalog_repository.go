package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lankanlens/rental-marketplace/internal/model"
)

// CatalogRepo manages the master catalog: equipment rows owned by the
// catalog shop that vendors pick from when listing stock.
type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

const equipmentColumns = `e.id, e.shop_id, e.category_id, e.equipment_name, e.brand, e.model_number, e.equipment_type,
	e.specifications, e.image_url, e.description, e.equipment_condition, e.created_at, e.updated_at`

func scanEquipment(s rowScanner, extra ...any) (model.Equipment, error) {
	var e model.Equipment
	dest := []any{&e.ID, &e.ShopID, &e.CategoryID, &e.Name, &e.Brand, &e.ModelNumber, &e.EquipmentType,
		&e.Specifications, &e.ImageURL, &e.Description, &e.Condition, &e.CreatedAt, &e.UpdatedAt}
	err := s.Scan(append(dest, extra...)...)
	return e, err
}

// CatalogInput holds validated template fields.
type CatalogInput struct {
	CategoryID     uint64
	Name           string
	Brand          string
	ModelNumber    string
	EquipmentType  string
	Specifications string
	ImageURL       string
	Description    string
	Condition      model.Condition
}

// fields returns the comparable column values of in, keyed by column.
func (in CatalogInput) fields() map[string]any {
	return map[string]any{
		"category_id":         in.CategoryID,
		"equipment_name":      in.Name,
		"brand":               in.Brand,
		"model_number":        in.ModelNumber,
		"equipment_type":      in.EquipmentType,
		"specifications":      in.Specifications,
		"image_url":           in.ImageURL,
		"description":         in.Description,
		"equipment_condition": string(in.Condition),
	}
}

func inputOf(e model.Equipment) CatalogInput {
	return CatalogInput{
		CategoryID:     e.CategoryID,
		Name:           e.Name,
		Brand:          e.Brand,
		ModelNumber:    e.ModelNumber,
		EquipmentType:  e.EquipmentType.String,
		Specifications: e.Specifications.String,
		ImageURL:       e.ImageURL.String,
		Description:    e.Description.String,
		Condition:      e.Condition,
	}
}

// Change is one field's before/after value in a CATALOG_UPDATE entry.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// diffCatalog lists the fields that differ between before and after.
func diffCatalog(before, after CatalogInput) map[string]Change {
	a, b := before.fields(), after.fields()
	changes := map[string]Change{}
	for k, old := range a {
		if nv := b[k]; fmt.Sprint(old) != fmt.Sprint(nv) {
			changes[k] = Change{Old: old, New: nv}
		}
	}
	return changes
}

// CatalogRow is a template with its category name and how many vendor
// listings reference it.
type CatalogRow struct {
	Equipment    model.Equipment
	CategoryName string
	Listings     int64
}

// CatalogFilter narrows the admin catalog list.
type CatalogFilter struct {
	CategoryID uint64
	Search     string // name, brand or model number
}

// List returns one page of catalog templates and the total count.
func (r *CatalogRepo) List(ctx context.Context, f CatalogFilter, pg Page) ([]CatalogRow, int64, error) {
	pg = pg.normalized(25)
	var p predicates
	p.add("s.kind = 'catalog'")
	if f.CategoryID > 0 {
		p.add("e.category_id = ?", f.CategoryID)
	}
	p.contains(f.Search, "e.equipment_name", "e.brand", "e.model_number")

	from := ` FROM equipment e
		JOIN shops s ON s.id = e.shop_id
		JOIN equipment_categories c ON c.id = e.category_id
		WHERE ` + p.sql()
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, p.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+equipmentColumns+`, c.category_name,
			(SELECT COUNT(*) FROM inventory i WHERE i.equipment_id = e.id)`+from+`
		ORDER BY c.category_name, e.brand, e.equipment_name
		LIMIT ? OFFSET ?`, p.with(pg.Size, pg.offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []CatalogRow
	for rows.Next() {
		var row CatalogRow
		row.Equipment, err = scanEquipment(rows, &row.CategoryName, &row.Listings)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// Get returns one catalog template or ErrNotFound.
func (r *CatalogRepo) Get(ctx context.Context, id uint64) (model.Equipment, error) {
	e, err := scanEquipment(r.db.QueryRowContext(ctx, "SELECT "+equipmentColumns+`
		FROM equipment e JOIN shops s ON s.id = e.shop_id
		WHERE e.id = ? AND s.kind = 'catalog'`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// CatalogModel is the compact template shape returned to the vendor
// model picker.
type CatalogModel struct {
	ID          uint64 `json:"equipment_id"`
	Name        string `json:"equipment_name"`
	Brand       string `json:"brand"`
	ModelNumber string `json:"model_number"`
	ImageURL    string `json:"image_url"`
}

// Models lists the catalog templates of one category and brand.
func (r *CatalogRepo) Models(ctx context.Context, categoryID uint64, brand string) ([]CatalogModel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT e.id, e.equipment_name, e.brand, e.model_number, COALESCE(e.image_url,'')
		FROM equipment e JOIN shops s ON s.id = e.shop_id
		WHERE s.kind = 'catalog' AND e.category_id = ? AND e.brand = ?
		ORDER BY e.equipment_name`, categoryID, brand)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CatalogModel{}
	for rows.Next() {
		var m CatalogModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Brand, &m.ModelNumber, &m.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Brands lists the distinct catalog brands.
func (r *CatalogRepo) Brands(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT e.brand
		FROM equipment e JOIN shops s ON s.id = e.shop_id
		WHERE s.kind = 'catalog' ORDER BY e.brand`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns the number of catalog templates.
func (r *CatalogRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment e JOIN shops s ON s.id = e.shop_id
		WHERE s.kind = 'catalog'`).Scan(&n)
	return n, err
}

// Create inserts a template and journals CATALOG_CREATE.
func (r *CatalogRepo) Create(ctx context.Context, actor model.Actor, in CatalogInput) (uint64, error) {
	var id uint64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		catalogID, err := r.checkTx(ctx, tx, 0, in)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO equipment (shop_id, category_id, equipment_name, brand, model_number, equipment_type,
				specifications, image_url, description, equipment_condition, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			catalogID, in.CategoryID, in.Name, in.Brand, in.ModelNumber, nullStr(in.EquipmentType),
			nullStr(in.Specifications), nullStr(in.ImageURL), nullStr(in.Description), string(in.Condition), now, now)
		if err != nil {
			if isDuplicateKey(err) {
				return duplicateCatalog()
			}
			return err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(newID)
		details := in.fields()
		details["equipment_id"] = id
		return writeAuditTx(ctx, tx, auditEntry{
			actor:       actor,
			action:      model.AuditCatalogCreate,
			targetEquip: id,
			details:     details,
			at:          now,
		})
	})
	return id, err
}

// Update rewrites a template and journals CATALOG_UPDATE with a
// per-field diff.  It reports false, and writes nothing, when the
// submitted values match the stored row.
func (r *CatalogRepo) Update(ctx context.Context, actor model.Actor, id uint64, in CatalogInput) (bool, error) {
	changed := false
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		before, err := scanEquipment(tx.QueryRowContext(ctx, "SELECT "+equipmentColumns+`
			FROM equipment e JOIN shops s ON s.id = e.shop_id
			WHERE e.id = ? AND s.kind = 'catalog'`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Catalog entry not found.")
		}
		if err != nil {
			return err
		}
		changes := diffCatalog(inputOf(before), in)
		if len(changes) == 0 {
			return nil
		}
		if _, err := r.checkTx(ctx, tx, id, in); err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE equipment SET category_id=?, equipment_name=?, brand=?, model_number=?, equipment_type=?,
				specifications=?, image_url=?, description=?, equipment_condition=?, updated_at=?
			 WHERE id=?`,
			in.CategoryID, in.Name, in.Brand, in.ModelNumber, nullStr(in.EquipmentType), nullStr(in.Specifications),
			nullStr(in.ImageURL), nullStr(in.Description), string(in.Condition), now, id)
		if err != nil {
			if isDuplicateKey(err) {
				return duplicateCatalog()
			}
			return err
		}
		changed = true
		return writeAuditTx(ctx, tx, auditEntry{
			actor:       actor,
			action:      model.AuditCatalogUpdate,
			targetEquip: id,
			details: map[string]any{
				"equipment_id":   id,
				"equipment_name": before.Name,
				"brand":          before.Brand,
				"model_number":   before.ModelNumber,
				"changes":        changes,
			},
			at: now,
		})
	})
	return changed, err
}

// Delete removes a template and journals CATALOG_DELETE.  Templates that
// vendor listings still reference cannot be deleted.
func (r *CatalogRepo) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		before, err := scanEquipment(tx.QueryRowContext(ctx, "SELECT "+equipmentColumns+`
			FROM equipment e JOIN shops s ON s.id = e.shop_id
			WHERE e.id = ? AND s.kind = 'catalog'`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Catalog entry not found.")
		}
		if err != nil {
			return err
		}
		var listings int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory WHERE equipment_id=?", id).Scan(&listings); err != nil {
			return err
		}
		if listings > 0 {
			return conflict(fmt.Sprintf(
				"This catalog entry is used by %d vendor listing(s). Remove those listings before deleting it.", listings))
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM equipment WHERE id=?", id); err != nil {
			return err
		}
		details := inputOf(before).fields()
		details["equipment_id"] = id
		return writeAuditTx(ctx, tx, auditEntry{
			actor:       actor,
			action:      model.AuditCatalogDelete,
			targetEquip: id,
			details:     details,
			at:          time.Now().UTC(),
		})
	})
}

// checkTx verifies the category exists and that no other template in the
// catalog shares (category, brand, model number).  It returns the catalog
// shop id.
func (r *CatalogRepo) checkTx(ctx context.Context, tx *sql.Tx, selfID uint64, in CatalogInput) (uint64, error) {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM equipment_categories WHERE id=?", in.CategoryID).Scan(&n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, &ValidationError{Problems: []string{"Invalid category selection."}}
	}
	catalogID, err := catalogShopID(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment
		WHERE shop_id=? AND category_id=? AND brand=? AND model_number=? AND id<>?`,
		catalogID, in.CategoryID, in.Brand, in.ModelNumber, selfID).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, duplicateCatalog()
	}
	return catalogID, nil
}

func duplicateCatalog() error {
	return &StateError{Err: ErrDuplicateCatalog,
		Message: "A master gear entry with this combination already exists. Brand, Model, and Category must be unique."}
}
