package model

import (
	"database/sql"
	"time"
)

// Condition is the physical state advertised for a piece of equipment.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
)

// Conditions lists the accepted values in display order.
var Conditions = []Condition{ConditionExcellent, ConditionGood, ConditionFair}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Category represents a row of `equipment_categories`.
type Category struct {
	ID   uint64 // equipment_categories.id
	Name string // equipment_categories.category_name
}

// Equipment represents a row of the `equipment` table.  Rows owned by the
// catalog shop are the templates vendors list from.
type Equipment struct {
	ID             uint64         // equipment.id
	ShopID         uint64         // equipment.shop_id
	CategoryID     uint64         // equipment.category_id
	Name           string         // equipment.equipment_name
	Brand          string         // equipment.brand
	ModelNumber    string         // equipment.model_number
	EquipmentType  sql.NullString // equipment.equipment_type
	Specifications sql.NullString // equipment.specifications (JSON or free text)
	ImageURL       sql.NullString // equipment.image_url (web path under /assets/images)
	Description    sql.NullString // equipment.description
	Condition      Condition      // equipment.equipment_condition
	CreatedAt      time.Time      // equipment.created_at
	UpdatedAt      time.Time      // equipment.updated_at
}
