package domain

type Action string

const (
	ActionViewDashboard         Action = "dashboard:view"
	ActionManageInventory       Action = "inventory:manage"
	ActionManageOrders          Action = "orders:manage"
	ActionDeleteOrders          Action = "orders:delete"
	ActionManageCoupons         Action = "coupons:manage"
	ActionManageFAQs            Action = "faqs:manage"
	ActionManageReviews         Action = "reviews:manage"
	ActionManageUsers           Action = "users:manage"
	ActionAssignPrivilegedRoles Action = "users:assign-privileged"
)

var rolePermissions = map[Role][]Action{
	RoleEditor: {
		ActionViewDashboard, ActionManageInventory, ActionManageFAQs, ActionManageReviews,
	},
	RoleManager: {
		ActionViewDashboard, ActionManageInventory, ActionManageFAQs, ActionManageReviews,
		ActionManageOrders, ActionManageCoupons,
	},
	RoleAdmin: {
		ActionViewDashboard, ActionManageInventory, ActionManageFAQs, ActionManageReviews,
		ActionManageOrders, ActionManageCoupons, ActionDeleteOrders, ActionManageUsers,
	},
}

// RolePermits is the only place that decides what a role may do.
func RolePermits(role Role, action Action) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, a := range rolePermissions[role] {
		if a == action {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role can reach the back office at all.
func IsStaff(role Role) bool { return RolePermits(role, ActionViewDashboard) }
