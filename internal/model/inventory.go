package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory represents a row of the `inventory` table: one shop's stock
// and pricing for one catalog model.  A disabled listing keeps its
// TotalQuantity and has AvailableQuantity == 0 so it can be re-enabled.
type Inventory struct {
	ID                uint64              // inventory.id
	EquipmentID       uint64              // inventory.equipment_id
	ShopID            uint64              // inventory.shop_id
	AvailableQuantity int                 // inventory.available_quantity
	TotalQuantity     int                 // inventory.total_quantity
	DailyRate         decimal.Decimal     // inventory.daily_rate_lkr
	WeeklyRate        decimal.NullDecimal // inventory.weekly_rate_lkr
	MonthlyRate       decimal.NullDecimal // inventory.monthly_rate_lkr
	Deposit           decimal.NullDecimal // inventory.deposit_required_lkr
	DeliveryAvailable bool                // inventory.delivery_available
	CreatedAt         time.Time           // inventory.created_at
}

// Available reports whether the listing can currently be booked.
func (i Inventory) Available() bool { return i.AvailableQuantity > 0 }
