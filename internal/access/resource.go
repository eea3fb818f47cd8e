package access

// Resource is a named category of protected data.
type Resource string

const (
	ResourceProducts      Resource = "products"
	ResourceCategories    Resource = "categories"
	ResourceSubcategories Resource = "subcategories"
	ResourceOrders        Resource = "orders"
	ResourceCompanies     Resource = "companies"
	ResourceAdmins        Resource = "admins"
)

var allResources = []Resource{
	ResourceProducts,
	ResourceCategories,
	ResourceSubcategories,
	ResourceOrders,
	ResourceCompanies,
	ResourceAdmins,
}

// AllResources returns every resource in display order.
func AllResources() []Resource {
	out := make([]Resource, len(allResources))
	copy(out, allResources)
	return out
}

// Valid reports whether r is one of the known resources.
func (r Resource) Valid() bool {
	for _, known := range allResources {
		if r == known {
			return true
		}
	}
	return false
}

// Action is one of the four CRUD verbs.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var allActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// AllActions returns every action in display order.
func AllActions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// Valid reports whether a is one of the four CRUD verbs.
func (a Action) Valid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}
