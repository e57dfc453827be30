package enums

import "fmt"

// Permission is a closed capability identifier. The raw string is what role
// assignments persist, so renaming a constant is a data migration.
type Permission string

const (
	// PermissionFullAccess short-circuits every permission check. Reserved for
	// the admin role.
	PermissionFullAccess Permission = "full_access"

	PermissionListAllOrders     Permission = "list_all_orders"
	PermissionUpdateOrderStatus Permission = "update_order_status"
	PermissionEditOrder         Permission = "edit_order"
	PermissionDeleteOrder       Permission = "delete_order"

	PermissionListPhotographers  Permission = "list_photographers"
	PermissionCreatePhotographer Permission = "create_photographer"
	PermissionEditPhotographer   Permission = "edit_photographer"
	PermissionDeletePhotographer Permission = "delete_photographer"

	PermissionCreateAlbum    Permission = "create_album"
	PermissionEditOwnAlbum   Permission = "edit_own_album"
	PermissionDeleteOwnAlbum Permission = "delete_own_album"
	PermissionEditAnyAlbum   Permission = "edit_any_album"
	PermissionDeleteAnyAlbum Permission = "delete_any_album"

	PermissionUploadPhoto    Permission = "upload_photo"
	PermissionEditOwnPhoto   Permission = "edit_own_photo"
	PermissionDeleteOwnPhoto Permission = "delete_own_photo"
	PermissionEditAnyPhoto   Permission = "edit_any_photo"
	PermissionDeleteAnyPhoto Permission = "delete_any_photo"

	PermissionManageRoles     Permission = "manage_roles"
	PermissionManageDiscounts Permission = "manage_discounts"

	PermissionListUsers    Permission = "list_users"
	PermissionEditUserRole Permission = "edit_user_role"

	PermissionViewOwnEarnings Permission = "view_own_earnings"
	PermissionViewAnyEarnings Permission = "view_any_earnings"
)

var validPermissions = []Permission{
	PermissionFullAccess,
	PermissionListAllOrders,
	PermissionUpdateOrderStatus,
	PermissionEditOrder,
	PermissionDeleteOrder,
	PermissionListPhotographers,
	PermissionCreatePhotographer,
	PermissionEditPhotographer,
	PermissionDeletePhotographer,
	PermissionCreateAlbum,
	PermissionEditOwnAlbum,
	PermissionDeleteOwnAlbum,
	PermissionEditAnyAlbum,
	PermissionDeleteAnyAlbum,
	PermissionUploadPhoto,
	PermissionEditOwnPhoto,
	PermissionDeleteOwnPhoto,
	PermissionEditAnyPhoto,
	PermissionDeleteAnyPhoto,
	PermissionManageRoles,
	PermissionManageDiscounts,
	PermissionListUsers,
	PermissionEditUserRole,
	PermissionViewOwnEarnings,
	PermissionViewAnyEarnings,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission. Unknown names come back
// as an error so stray strings in the database surface loudly instead of
// silently failing every check.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// AllPermissions returns the full closed permission set, used by migrations and
// seed tooling.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}
