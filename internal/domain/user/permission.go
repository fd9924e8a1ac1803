package user

type Permission string

const (
	// Attendance
	PermissionAttendanceViewOwn   Permission = "attendance.view_own"
	PermissionAttendanceClock     Permission = "attendance.clock"
	PermissionAttendanceRequest   Permission = "attendance.change_request"
	PermissionAttendanceViewAll   Permission = "attendance.view_all"
	PermissionAttendanceManage    Permission = "attendance.manage"
	PermissionAttendanceApprove   Permission = "attendance.approve"
	PermissionAttendanceReconcile Permission = "attendance.reconcile"

	// Roster
	PermissionRosterView Permission = "roster.view"

	// Notifications
	PermissionNotificationStream Permission = "notification.stream"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
		PermissionAttendanceRequest,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionAttendanceApprove,
		PermissionAttendanceReconcile,
		PermissionRosterView,
		PermissionNotificationStream,
	},
	RoleStaff: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
		PermissionAttendanceRequest,
		PermissionNotificationStream,
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
