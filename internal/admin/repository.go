package admin

import "context"

// Repository provides persistence for admin accounts.
type Repository interface {
	// Get returns a cerr.NotFound error when the admin does not exist.
	Get(ctx context.Context, id string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
	Upsert(ctx context.Context, a *Admin) error
	// Delete returns a cerr.NotFound error when the admin does not exist.
	Delete(ctx context.Context, id string) error
}
