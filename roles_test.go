package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/footmatch/go-auth"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role auth.UserRole
		want bool
	}{
		{auth.RoleUser, true},
		{auth.RoleCaptain, true},
		{auth.RoleCompanyAdmin, true},
		{auth.RoleAdmin, true},
		{"", false},
		{"user", false},
		{"SUPERSTAR", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, auth.IsValidRole(tt.role), "role %q", tt.role)
	}
}

func TestIsPromotableRole(t *testing.T) {
	assert.True(t, auth.IsPromotableRole(auth.RoleCaptain))
	assert.True(t, auth.IsPromotableRole(auth.RoleCompanyAdmin))

	assert.False(t, auth.IsPromotableRole(auth.RoleUser))
	assert.False(t, auth.IsPromotableRole(auth.RoleAdmin))
	assert.False(t, auth.IsPromotableRole(""))
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("CAPTAIN")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleCaptain, role)

	_, ok = auth.ParseRole("captain")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := auth.GetAllRoles()
	assert.Len(t, roles, 4)
	assert.Equal(t, auth.RoleUser, roles[0])
	assert.Equal(t, auth.RoleAdmin, roles[len(roles)-1])
}
