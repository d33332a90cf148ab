package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForRole(t *testing.T) {
	admin := ForRole(RoleAdmin)
	assert.True(t, admin.ManageForms)
	assert.True(t, admin.ViewAllSubmissions)
	assert.True(t, admin.ManageUsers)

	manager := ForRole(RoleManager)
	assert.True(t, manager.ManageForms)
	assert.True(t, manager.ViewAllSubmissions)
	assert.False(t, manager.ManageUsers)

	student := ForRole(RoleStudent)
	assert.False(t, student.ManageForms)
	assert.False(t, student.ViewAllSubmissions)
	assert.False(t, student.ManageUsers)

	unknown := ForRole("superuser")
	assert.Equal(t, Capabilities{}, unknown)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleManager))
	assert.True(t, ValidRole(RoleStudent))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("root"))
}
