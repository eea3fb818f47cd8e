package admin

import (
	"time"

	"github.com/kazz187/shopguild/internal/access"
)

// Admin is a back-office account. Permissions is optional; when nil the
// role's table applies.
type Admin struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Email       string        `yaml:"email" json:"email"`
	Role        access.Role   `yaml:"role" json:"role"`
	Permissions access.Matrix `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	CreatedAt   time.Time     `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `yaml:"updated_at" json:"updated_at"`
}

// Subject is the view of the account that permission checks use.
func (a *Admin) Subject(registry *access.Registry) *access.User {
	return registry.Subject(a.Role, a.Permissions)
}
