package repositoryimpl

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/shopguild/internal/admin"
	"github.com/kazz187/shopguild/pkg/cerr"
	"github.com/kazz187/shopguild/pkg/storage"
)

const adminsPrefix = "admins"

// YAMLRepository stores one YAML file per admin, keyed by admin ID.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", adminsPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*admin.Admin, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("admin", err)
	}
	var a admin.Admin
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal admin %s: %w", id, err))
	}
	return &a, nil
}

// List returns every admin ordered by ID, which for ULIDs is creation order.
func (r *YAMLRepository) List(ctx context.Context) ([]*admin.Admin, error) {
	paths, err := r.storage.List(ctx, adminsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("admins", err)
	}
	admins := make([]*admin.Admin, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, ".yaml") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(p, adminsPrefix+"/"), ".yaml")
		a, err := r.Get(ctx, id)
		if err != nil {
			// Deleted since the listing was taken.
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return nil, err
		}
		admins = append(admins, a)
	}
	slices.SortFunc(admins, func(a, b *admin.Admin) int {
		return strings.Compare(a.ID, b.ID)
	})
	return admins, nil
}

func (r *YAMLRepository) Upsert(ctx context.Context, a *admin.Admin) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal admin: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("admin", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("admin", err)
	}
	return nil
}
