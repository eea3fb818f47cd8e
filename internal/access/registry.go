package access

import (
	"slices"
	"sync"
)

// Registry resolves roles to matrices, consulting the loaded policy before
// the built-in tables. It is safe for concurrent use; the policy may be
// swapped while requests are being served.
type Registry struct {
	mu     sync.RWMutex
	policy *Policy
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetPolicy installs p. A nil policy restores the built-in tables.
func (r *Registry) SetPolicy(p *Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = p
}

func (r *Registry) lookup(role Role) (Matrix, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.policy == nil {
		return nil, false
	}
	m, ok := r.policy.Roles[role]
	return m, ok
}

// PermissionsFor returns a matrix owned by the caller.
func (r *Registry) PermissionsFor(role Role) Matrix {
	if m, ok := r.lookup(role); ok {
		return m.Clone()
	}
	return DefaultPermissionsFor(role)
}

// Knows reports whether role has a table of its own, built-in or from policy.
func (r *Registry) Knows(role Role) bool {
	if IsBuiltin(role) {
		return true
	}
	_, ok := r.lookup(role)
	return ok
}

// Roles lists built-in roles followed by policy-only roles in name order.
func (r *Registry) Roles() []Role {
	roles := BuiltinRoles()
	r.mu.RLock()
	var extra []Role
	if r.policy != nil {
		for role := range r.policy.Roles {
			if !IsBuiltin(role) {
				extra = append(extra, role)
			}
		}
	}
	r.mu.RUnlock()
	slices.Sort(extra)
	return append(roles, extra...)
}

// Subject builds the permission-check view of a user. A stored matrix wins
// over the role's table.
func (r *Registry) Subject(role Role, stored Matrix) *User {
	if stored != nil {
		return &User{Role: role, Permissions: stored.Clone()}
	}
	return &User{Role: role, Permissions: r.PermissionsFor(role)}
}
