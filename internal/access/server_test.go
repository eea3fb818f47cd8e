package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type subjectKey struct{}

func newTestService(t *testing.T) *httptest.Server {
	t.Helper()
	svc := NewServer(NewRegistry(), func(ctx context.Context) *User {
		u, _ := ctx.Value(subjectKey{}).(*User)
		return u
	})
	path, handler := NewAccessServiceHandler(svc)
	mux := http.NewServeMux()
	mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var u *User
		switch r.Header.Get("X-Test-Role") {
		case "":
		case string(RoleOrderManager):
			u = &User{Role: RoleOrderManager, Permissions: DefaultPermissionsFor(RoleOrderManager)}
		default:
			u = &User{Role: Role(r.Header.Get("X-Test-Role"))}
		}
		handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, u)))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, procedure, role string, fields map[string]any) *structpb.Struct {
	t.Helper()
	client := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+procedure)
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	req := connect.NewRequest(msg)
	if role != "" {
		req.Header().Set("X-Test-Role", role)
	}
	resp, err := client.CallUnary(context.Background(), req)
	require.NoError(t, err)
	return resp.Msg
}

func TestServer_GetRolePermissions(t *testing.T) {
	srv := newTestService(t)

	got := call(t, srv, AccessServiceGetRolePermissionsProcedure, "", map[string]any{"role": "contentEditor"}).AsMap()
	assert.Equal(t, "contentEditor", got["role"])
	assert.Equal(t, true, got["known"])
	perms := got["permissions"].(map[string]any)
	assert.Equal(t, map[string]any{"create": true, "read": true, "update": true, "delete": false}, perms["categories"])
	assert.Equal(t, map[string]any{"create": false, "read": false, "update": false, "delete": false}, perms["orders"])

	got = call(t, srv, AccessServiceGetRolePermissionsProcedure, "", map[string]any{"role": "guest"}).AsMap()
	assert.Equal(t, false, got["known"])
}

func TestServer_CheckPermission(t *testing.T) {
	srv := newTestService(t)

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"anonymous", "", "orders", "read", false},
		{"orderManager deletes orders", "orderManager", "orders", "delete", true},
		{"orderManager reads admins", "orderManager", "admins", "read", false},
		{"unknown resource", "orderManager", "widgets", "read", false},
		{"superAdmin", "superAdmin", "admins", "delete", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, srv, AccessServiceCheckPermissionProcedure, tt.role, map[string]any{
				"resource": tt.resource,
				"action":   tt.action,
			})
			assert.Equal(t, tt.want, got.GetFields()["allowed"].GetBoolValue())
		})
	}
}

func TestServer_GetVisibleMenu(t *testing.T) {
	srv := newTestService(t)

	got := call(t, srv, AccessServiceGetVisibleMenuProcedure, "orderManager", nil).AsMap()
	assert.Equal(t, []any{"dashboard", "products", "orders", "statistics", "profile"}, got["items"])

	got = call(t, srv, AccessServiceGetVisibleMenuProcedure, "", nil).AsMap()
	assert.Equal(t, []any{}, got["items"])
}
