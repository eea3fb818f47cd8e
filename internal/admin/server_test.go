package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/admin"
	"github.com/kazz187/shopguild/internal/admin/repositoryimpl"
	"github.com/kazz187/shopguild/internal/eventbus"
	"github.com/kazz187/shopguild/internal/respcache"
	"github.com/kazz187/shopguild/internal/session"
	"github.com/kazz187/shopguild/pkg/cerr"
	"github.com/kazz187/shopguild/pkg/storage"
)

const (
	rootID   = "01HZX00000000000000000000A"
	editorID = "01HZX00000000000000000000B"
)

type fixture struct {
	events   <-chan *eventbus.Event
	repo     admin.Repository
	resolver *admin.SubjectResolver
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(st)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &admin.Admin{ID: rootID, Name: "Root", Email: "root@example.com", Role: access.RoleSuperAdmin, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &admin.Admin{ID: editorID, Name: "Editor", Email: "editor@example.com", Role: access.RoleContentEditor, CreatedAt: now, UpdatedAt: now}))

	registry := access.NewRegistry()
	resolver := admin.NewSubjectResolver(repo, registry, respcache.New[*admin.Admin](respcache.WithMaxAge(time.Minute)))
	bus := eventbus.New()
	_, events := bus.Subscribe(16)
	srv := admin.NewServer(repo, registry, resolver, bus)

	r := chi.NewRouter()
	r.Use(cerr.NewConvertConnectErrorChiMiddleware())
	r.Use(session.Middleware(resolver))
	r.Route("/api/admins", srv.Routes)
	return &fixture{events: events, repo: repo, resolver: resolver, handler: r}
}

func (f *fixture) do(t *testing.T, method, path, adminID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if adminID != "" {
		req.Header.Set(session.AdminIDHeader, adminID)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Gates(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		method  string
		path    string
		adminID string
		body    string
		want    int
	}{
		{"anonymous list", http.MethodGet, "/api/admins/", "", "", http.StatusUnauthorized},
		{"unknown caller list", http.MethodGet, "/api/admins/", "01HZX0000000000000000000ZZ", "", http.StatusUnauthorized},
		{"editor list", http.MethodGet, "/api/admins/", editorID, "", http.StatusForbidden},
		{"editor create", http.MethodPost, "/api/admins/", editorID, `{"name":"x","email":"x@example.com","role":"orderManager"}`, http.StatusForbidden},
		{"editor delete", http.MethodDelete, "/api/admins/" + rootID, editorID, "", http.StatusForbidden},
		{"super admin list", http.MethodGet, "/api/admins/", rootID, "", http.StatusOK},
		{"super admin get", http.MethodGet, "/api/admins/" + editorID, rootID, "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/admins/01HZX0000000000000000000ZZ", rootID, "", http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/api/admins/not-a-ulid", rootID, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.adminID, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_Me(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admins/me", editorID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Admin struct {
			ID                   string                     `json:"id"`
			EffectivePermissions map[string]map[string]bool `json:"effective_permissions"`
		} `json:"admin"`
		VisibleMenu []string `json:"visible_menu"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, editorID, body.Admin.ID)
	assert.True(t, body.Admin.EffectivePermissions["categories"]["create"])
	assert.False(t, body.Admin.EffectivePermissions["orders"]["read"])
	assert.Equal(t, []string{"dashboard", "products", "categories", "subcategories", "companies", "promotions", "statistics", "profile"}, body.VisibleMenu)

	rec = f.do(t, http.MethodGet, "/api/admins/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_CreateUpdateDelete(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admins/", rootID, `{"name":" Olivia ","email":"olivia@example.com","role":"orderManager"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created admin.Admin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.ID, 26)
	assert.Equal(t, "Olivia", created.Name)

	// The new admin can read orders but not admins.
	rec = f.do(t, http.MethodGet, "/api/admins/", created.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A stored matrix overrides the role table.
	update := `{"name":"Olivia","email":"olivia@example.com","role":"orderManager","permissions":{"admins":{"read":true}}}`
	rec = f.do(t, http.MethodPut, "/api/admins/"+created.ID, rootID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/admins/", created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admins/"+created.ID, rootID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := f.repo.Get(context.Background(), created.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	// create, update and delete each announce the change.
	require.Len(t, f.events, 3)
	for range 3 {
		ev := <-f.events
		assert.Equal(t, eventbus.EventAdminChanged, ev.Type)
		assert.Equal(t, created.ID, ev.Path)
	}

	rec = f.do(t, http.MethodGet, "/api/admins/me", created.ID, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_DeleteSelf(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodDelete, "/api/admins/"+rootID, rootID, "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestServer_Validation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admins/", rootID, `{"name":"","email":"nope","role":"intern","permissions":{"coupons":{"read":true}}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_argument", body.Code)
	assert.ElementsMatch(t, []string{
		"name is required",
		"email is not a valid address",
		`unknown role "intern"`,
		`unknown resource "coupons"`,
	}, body.Details)

	rec = f.do(t, http.MethodPost, "/api/admins/", rootID, `{"name":"x","unexpected":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
