package auth

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleCaptain, RoleCompanyAdmin, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsPromotableRole checks if the role is one the promotion flow may assign.
// ADMIN is deliberately excluded; admin accounts are provisioned out of band.
func IsPromotableRole(r UserRole) bool {
	switch r {
	case RoleCaptain, RoleCompanyAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleCaptain,
		RoleCompanyAdmin,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
