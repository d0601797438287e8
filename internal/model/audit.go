package model

import (
	"database/sql"
	"time"
)

// AuditAction is the action_type of an admin_logs row.  The set is closed:
// every privileged mutation maps to exactly one of these.
type AuditAction string

const (
	AuditListingDisable AuditAction = "LISTING_DISABLE"
	AuditListingEnable  AuditAction = "LISTING_ENABLE"
	AuditListingDelete  AuditAction = "LISTING_DELETE"
	AuditCatalogCreate  AuditAction = "CATALOG_CREATE"
	AuditCatalogUpdate  AuditAction = "CATALOG_UPDATE"
	AuditCatalogDelete  AuditAction = "CATALOG_DELETE"
	AuditVendorApprove  AuditAction = "VENDOR_APPROVE"
	AuditVendorReject   AuditAction = "VENDOR_REJECT"
	AuditUserSuspend    AuditAction = "USER_SUSPEND"
	AuditUserActivate   AuditAction = "USER_ACTIVATE"
	AuditUserDelete     AuditAction = "USER_DELETE"
)

// AuditActions lists every action type, used by the log viewer filter.
var AuditActions = []AuditAction{
	AuditListingDisable, AuditListingEnable, AuditListingDelete,
	AuditCatalogCreate, AuditCatalogUpdate, AuditCatalogDelete,
	AuditVendorApprove, AuditVendorReject,
	AuditUserSuspend, AuditUserActivate, AuditUserDelete,
}

// Valid reports whether a is a known action type.
func (a AuditAction) Valid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

// AdminLog represents a row of `admin_logs`.
type AdminLog struct {
	ID                uint64         // admin_logs.id
	AdminUserID       uint64         // admin_logs.admin_user_id
	Action            AuditAction    // admin_logs.action_type
	TargetUserID      sql.NullInt64  // admin_logs.target_user_id
	TargetEquipmentID sql.NullInt64  // admin_logs.target_equipment_id
	Details           string         // admin_logs.action_details (JSON)
	IPAddress         string         // admin_logs.ip_address
	CreatedAt         time.Time      // admin_logs.created_at
	AdminName         sql.NullString // joined users.full_name of the admin
	TargetUserName    sql.NullString // joined users.full_name of the target, if it still exists
	EquipmentName     sql.NullString // joined equipment.equipment_name, if it still exists
}

// SearchLog represents a row of `search_logs`.
type SearchLog struct {
	Term        string    // search_logs.search_term
	City        string    // search_logs.search_city
	ResultCount int       // search_logs.result_count
	CreatedAt   time.Time // search_logs.created_at
}
