package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func userFor(role Role) *User {
	return &User{Role: role, Permissions: DefaultPermissionsFor(role)}
}

func TestIsMenuItemVisible(t *testing.T) {
	tests := []struct {
		name string
		user *User
		item MenuItem
		want bool
	}{
		{"nil user dashboard", nil, MenuDashboard, false},
		{"any user dashboard", &User{Role: "x"}, MenuDashboard, true},
		{"any user profile", &User{Role: "x"}, MenuProfile, true},
		{"any user statistics", &User{}, MenuStatistics, true},
		{"orderManager orders", userFor(RoleOrderManager), MenuOrders, true},
		{"orderManager admin-users", userFor(RoleOrderManager), MenuAdminUsers, false},
		{"orderManager promotions", userFor(RoleOrderManager), MenuPromotions, false},
		{"contentEditor promotions", userFor(RoleContentEditor), MenuPromotions, true},
		{"contentEditor subcategories via categories", userFor(RoleContentEditor), MenuSubcategories, true},
		{"subcategories gated on categories", &User{Permissions: Matrix{ResourceSubcategories: {Read: true}}}, MenuSubcategories, false},
		{"productManager companies", userFor(RoleProductManager), MenuCompanies, true},
		{"superAdmin admin-users", &User{Role: RoleSuperAdmin}, MenuAdminUsers, true},
		{"unknown item", userFor(RoleSuperAdmin), "settings", false},
		{"no matrix", &User{Role: RoleProductManager}, MenuProducts, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMenuItemVisible(tt.user, tt.item))
		})
	}
}

func TestVisibleMenu(t *testing.T) {
	assert.Nil(t, VisibleMenu(nil))
	assert.Equal(t,
		[]MenuItem{MenuDashboard, MenuProducts, MenuOrders, MenuStatistics, MenuProfile},
		VisibleMenu(userFor(RoleOrderManager)),
	)
	assert.Equal(t, MenuItems(), VisibleMenu(userFor(RoleSuperAdmin)))
	// Unknown roles read everything, which opens every read-gated item.
	assert.Equal(t,
		[]MenuItem{MenuDashboard, MenuProducts, MenuCategories, MenuSubcategories, MenuCompanies, MenuOrders, MenuAdminUsers, MenuStatistics, MenuProfile},
		VisibleMenu(userFor("guest")),
	)
}
