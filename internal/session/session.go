package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/pkg/cerr"
	"github.com/kazz187/shopguild/pkg/clog"
)

// AdminIDHeader carries the signed-in administrator, set by the auth proxy in
// front of the BFF.
const AdminIDHeader = "X-Admin-ID"

// Resolver turns an administrator ID into the user permission checks see.
type Resolver interface {
	Resolve(ctx context.Context, adminID string) (*access.User, error)
}

type current struct {
	adminID string
	user    *access.User
}

type ctxKey struct{}

func WithUser(ctx context.Context, adminID string, user *access.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, &current{adminID: adminID, user: user})
}

// UserFrom returns the signed-in user, or nil. A nil user fails every check.
func UserFrom(ctx context.Context) *access.User {
	if c, ok := ctx.Value(ctxKey{}).(*current); ok {
		return c.user
	}
	return nil
}

func AdminIDFrom(ctx context.Context) string {
	if c, ok := ctx.Value(ctxKey{}).(*current); ok {
		return c.adminID
	}
	return ""
}

// Middleware resolves the caller once per request. Unknown or missing IDs
// leave the request anonymous instead of rejecting it, so public endpoints
// keep working and gated ones deny on their own.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID := r.Header.Get(AdminIDHeader)
			if adminID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			user, err := resolver.Resolve(ctx, adminID)
			if err != nil {
				if !cerr.IsCode(err, cerr.NotFound) {
					slog.ErrorContext(ctx, "failed to resolve session", "admin_id", adminID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			clog.AddSubject(ctx, adminID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(WithUser(ctx, adminID, user)))
		})
	}
}
