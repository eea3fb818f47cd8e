package access

// Role tags an administrator. Any string is accepted; roles without a table
// entry fall through to defaultGrants.
type Role string

const (
	RoleSuperAdmin     Role = "superAdmin"
	RoleProductManager Role = "productManager"
	RoleOrderManager   Role = "orderManager"
	RoleContentEditor  Role = "contentEditor"
)

type grant struct {
	resources []Resource
	actions   []Action
}

var (
	fullAccess = allActions
	noDelete   = []Action{ActionCreate, ActionRead, ActionUpdate}
	readUpdate = []Action{ActionRead, ActionUpdate}
	readOnly   = []Action{ActionRead}
)

var roleGrants = map[Role][]grant{
	RoleSuperAdmin: {
		{allResources, fullAccess},
	},
	RoleProductManager: {
		{[]Resource{ResourceProducts}, fullAccess},
		{[]Resource{ResourceCategories, ResourceSubcategories, ResourceCompanies}, readOnly},
	},
	RoleOrderManager: {
		{[]Resource{ResourceOrders}, fullAccess},
		{[]Resource{ResourceProducts}, readOnly},
	},
	RoleContentEditor: {
		{[]Resource{ResourceCategories, ResourceSubcategories, ResourceCompanies}, noDelete},
		{[]Resource{ResourceProducts}, readUpdate},
	},
}

// defaultGrants applies to every role missing from roleGrants. It grants read
// on everything rather than nothing; see DESIGN.md before narrowing it.
var defaultGrants = []grant{
	{allResources, readOnly},
}

// BuiltinRoles returns the roles with a dedicated grant table.
func BuiltinRoles() []Role {
	return []Role{RoleSuperAdmin, RoleProductManager, RoleOrderManager, RoleContentEditor}
}

// IsBuiltin reports whether role has its own grant table.
func IsBuiltin(role Role) bool {
	_, ok := roleGrants[role]
	return ok
}

// DefaultPermissionsFor builds a fresh matrix for role. Callers own the result.
func DefaultPermissionsFor(role Role) Matrix {
	grants, ok := roleGrants[role]
	if !ok {
		grants = defaultGrants
	}
	m := newMatrix()
	for _, g := range grants {
		for _, res := range g.resources {
			for _, a := range g.actions {
				m[res].Set(a, true)
			}
		}
	}
	return m
}
