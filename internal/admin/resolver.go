package admin

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/respcache"
	"github.com/kazz187/shopguild/pkg/cerr"
)

// SubjectResolver resolves session admin IDs. Accounts are cached briefly;
// the role table is applied on every call so policy reloads take effect
// immediately.
type SubjectResolver struct {
	repo     Repository
	registry *access.Registry
	cache    *respcache.Cache[*Admin]
}

func NewSubjectResolver(repo Repository, registry *access.Registry, cache *respcache.Cache[*Admin]) *SubjectResolver {
	return &SubjectResolver{repo: repo, registry: registry, cache: cache}
}

func (r *SubjectResolver) Resolve(ctx context.Context, adminID string) (*access.User, error) {
	a, err := r.lookup(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return a.Subject(r.registry), nil
}

func (r *SubjectResolver) lookup(ctx context.Context, adminID string) (*Admin, error) {
	if _, err := ulid.ParseStrict(adminID); err != nil {
		return nil, cerr.NewError(cerr.NotFound, "admin not found", err)
	}
	if r.cache != nil {
		if a, ok := r.cache.Get(adminID); ok {
			return a, nil
		}
	}
	a, err := r.repo.Get(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(adminID, a)
	}
	return a, nil
}

// Forget drops a cached account after it was changed.
func (r *SubjectResolver) Forget(adminID string) {
	if r.cache != nil {
		r.cache.Clear(adminID)
	}
}
