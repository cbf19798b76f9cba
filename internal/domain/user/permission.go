package user

type Permission string

const (
	// Own mismatches
	PermissionMismatchViewOwn Permission = "mismatch.view_own"
	PermissionMismatchExplain Permission = "mismatch.explain"

	// Review
	PermissionMismatchViewAll Permission = "mismatch.view_all"
	PermissionMismatchDecide  Permission = "mismatch.decide"

	// Reconciliation
	PermissionReconciliationRun Permission = "reconciliation.run"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionMismatchViewOwn,
		PermissionMismatchExplain,
		PermissionMismatchViewAll,
		PermissionMismatchDecide,
		PermissionReconciliationRun,
	},
	RoleManager: {
		PermissionMismatchViewOwn,
		PermissionMismatchExplain,
		PermissionMismatchViewAll,
		PermissionMismatchDecide,
		PermissionReconciliationRun,
	},
	RoleEmployee: {
		PermissionMismatchViewOwn,
		PermissionMismatchExplain,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
