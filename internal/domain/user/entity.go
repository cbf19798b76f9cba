package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can run reconciliation and decide mismatches
	RoleEmployee Role = "employee" // Worker - explains own mismatches
)
