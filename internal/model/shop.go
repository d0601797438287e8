package model

import (
	"database/sql"
	"time"
)

// ShopKind separates the single catalog shop, whose equipment rows are
// templates, from vendor shops that hold real inventory.
type ShopKind string

const (
	ShopCatalog ShopKind = "catalog"
	ShopVendor  ShopKind = "vendor"
)

// Shop represents a row of the `shops` table.
type Shop struct {
	ID            uint64         // shops.id
	Kind          ShopKind       // shops.kind
	OwnerUserID   sql.NullInt64  // shops.owner_user_id (vendor shops)
	ShopName      string         // shops.shop_name
	Description   sql.NullString // shops.description
	City          string         // shops.primary_city
	Phone         string         // shops.phone
	WhatsApp      sql.NullString // shops.whatsapp_number
	Email         sql.NullString // shops.email
	IsActive      bool           // shops.is_active
	AverageRating float64        // shops.average_rating
	TotalReviews  int            // shops.total_reviews
	CreatedAt     time.Time      // shops.created_at
}

// ContactNumber is the number customers should message: the WhatsApp
// number when the shop has one, its phone otherwise.
func (s Shop) ContactNumber() string {
	if s.WhatsApp.Valid && s.WhatsApp.String != "" {
		return s.WhatsApp.String
	}
	return s.Phone
}

// Cities lists the service areas offered in search forms.
var Cities = []string{
	"Colombo", "Kandy", "Galle", "Jaffna", "Negombo",
	"Matara", "Trincomalee", "Batticaloa", "Anuradhapura", "Kurunegala",
}

// DefaultCity is used for vendor shops created before a city is known.
const DefaultCity = "Colombo"
