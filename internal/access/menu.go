package access

// MenuItem identifies a navigation entry of the admin back-office.
type MenuItem string

const (
	MenuDashboard     MenuItem = "dashboard"
	MenuProfile       MenuItem = "profile"
	MenuStatistics    MenuItem = "statistics"
	MenuProducts      MenuItem = "products"
	MenuCategories    MenuItem = "categories"
	MenuSubcategories MenuItem = "subcategories"
	MenuCompanies     MenuItem = "companies"
	MenuOrders        MenuItem = "orders"
	MenuPromotions    MenuItem = "promotions"
	MenuAdminUsers    MenuItem = "admin-users"
)

type menuGate struct {
	resource Resource
	action   Action
}

// Items visible to every signed-in user.
var openMenuItems = map[MenuItem]bool{
	MenuDashboard:  true,
	MenuProfile:    true,
	MenuStatistics: true,
}

// menuGates is the one place that decides which permission gates a menu item.
var menuGates = map[MenuItem]menuGate{
	MenuProducts:      {ResourceProducts, ActionRead},
	MenuCategories:    {ResourceCategories, ActionRead},
	MenuSubcategories: {ResourceCategories, ActionRead},
	MenuCompanies:     {ResourceCompanies, ActionRead},
	MenuOrders:        {ResourceOrders, ActionRead},
	MenuPromotions:    {ResourceProducts, ActionUpdate},
	MenuAdminUsers:    {ResourceAdmins, ActionRead},
}

var menuOrder = []MenuItem{
	MenuDashboard,
	MenuProducts,
	MenuCategories,
	MenuSubcategories,
	MenuCompanies,
	MenuOrders,
	MenuPromotions,
	MenuAdminUsers,
	MenuStatistics,
	MenuProfile,
}

// MenuItems returns every known menu item in display order.
func MenuItems() []MenuItem {
	out := make([]MenuItem, len(menuOrder))
	copy(out, menuOrder)
	return out
}

// IsMenuItemVisible reports whether item belongs in user's navigation. A nil
// user sees nothing; unknown items are hidden.
func IsMenuItemVisible(user *User, item MenuItem) bool {
	if user == nil {
		return false
	}
	if openMenuItems[item] {
		return true
	}
	gate, ok := menuGates[item]
	if !ok {
		return false
	}
	return HasPermission(user, gate.resource, gate.action)
}

// VisibleMenu filters MenuItems down to what user may see.
func VisibleMenu(user *User) []MenuItem {
	var out []MenuItem
	for _, item := range menuOrder {
		if IsMenuItemVisible(user, item) {
			out = append(out, item)
		}
	}
	return out
}
