package access

// User is the caller as seen by permission checks. Permissions may be nil.
type User struct {
	Role        Role
	Permissions Matrix
}

// HasPermission never fails: a nil user, unknown resource or action, or a
// missing matrix all deny. superAdmin is allowed regardless of Permissions.
func HasPermission(user *User, resource Resource, action Action) bool {
	if user == nil {
		return false
	}
	if user.Role == RoleSuperAdmin {
		return true
	}
	return user.Permissions.Allows(resource, action)
}

// EffectivePermissions is the matrix HasPermission answers from: full access
// for superAdmin, the user's own matrix otherwise. The result is a copy.
func EffectivePermissions(user *User) Matrix {
	if user == nil {
		return newMatrix()
	}
	if user.Role == RoleSuperAdmin {
		return DefaultPermissionsFor(RoleSuperAdmin)
	}
	if user.Permissions == nil {
		return newMatrix()
	}
	return user.Permissions.Clone()
}
