package model

import "fmt"

// The admin and vendor pages post an "action" field.  Each resource has
// its own closed set; ParseXAction rejects anything else so a typo can
// never fall through to a silent no-op.

// ListingAction is a moderation operation on an inventory row.
type ListingAction int

const (
	ListingDisable ListingAction = iota + 1
	ListingEnable
	ListingDelete
)

// ParseListingAction maps a posted action name to a ListingAction.
func ParseListingAction(s string) (ListingAction, error) {
	switch s {
	case "disable":
		return ListingDisable, nil
	case "enable":
		return ListingEnable, nil
	case "delete":
		return ListingDelete, nil
	}
	return 0, fmt.Errorf("unknown listing action %q", s)
}

func (a ListingAction) String() string {
	switch a {
	case ListingDisable:
		return "disable"
	case ListingEnable:
		return "enable"
	case ListingDelete:
		return "delete"
	}
	return fmt.Sprintf("ListingAction(%d)", int(a))
}

// Audit returns the admin_logs action type recorded for a.
func (a ListingAction) Audit() AuditAction {
	switch a {
	case ListingDisable:
		return AuditListingDisable
	case ListingEnable:
		return AuditListingEnable
	case ListingDelete:
		return AuditListingDelete
	}
	panic(fmt.Sprintf("model: no audit action for %v", a))
}

// UserAction is an account moderation operation.
type UserAction int

const (
	UserSuspend UserAction = iota + 1
	UserActivate
	UserDelete
)

// ParseUserAction maps a posted action name to a UserAction.
func ParseUserAction(s string) (UserAction, error) {
	switch s {
	case "suspend":
		return UserSuspend, nil
	case "activate":
		return UserActivate, nil
	case "delete":
		return UserDelete, nil
	}
	return 0, fmt.Errorf("unknown user action %q", s)
}

func (a UserAction) String() string {
	switch a {
	case UserSuspend:
		return "suspend"
	case UserActivate:
		return "activate"
	case UserDelete:
		return "delete"
	}
	return fmt.Sprintf("UserAction(%d)", int(a))
}

// Audit returns the admin_logs action type recorded for a.
func (a UserAction) Audit() AuditAction {
	switch a {
	case UserSuspend:
		return AuditUserSuspend
	case UserActivate:
		return AuditUserActivate
	case UserDelete:
		return AuditUserDelete
	}
	panic(fmt.Sprintf("model: no audit action for %v", a))
}

// VendorAction is a decision on a vendor application.
type VendorAction int

const (
	VendorApprove VendorAction = iota + 1
	VendorReject
)

// ParseVendorAction maps a posted action name to a VendorAction.
func ParseVendorAction(s string) (VendorAction, error) {
	switch s {
	case "approve":
		return VendorApprove, nil
	case "reject":
		return VendorReject, nil
	}
	return 0, fmt.Errorf("unknown vendor action %q", s)
}

// CatalogAction is an operation on a master catalog template.
type CatalogAction int

const (
	CatalogSave CatalogAction = iota + 1
	CatalogDelete
)

// ParseCatalogAction maps a posted action name to a CatalogAction.
func ParseCatalogAction(s string) (CatalogAction, error) {
	switch s {
	case "save":
		return CatalogSave, nil
	case "delete":
		return CatalogDelete, nil
	}
	return 0, fmt.Errorf("unknown catalog action %q", s)
}
