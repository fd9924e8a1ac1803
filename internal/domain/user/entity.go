package user

type Role string

const (
	RoleAdmin Role = "admin" // Manages attendance of every staff member
	RoleStaff Role = "staff" // Clocks in/out and submits change requests
)

// IsAdmin checks if role can manage other staff's attendance
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
