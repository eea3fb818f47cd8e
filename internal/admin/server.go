package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/eventbus"
	"github.com/kazz187/shopguild/internal/session"
	"github.com/kazz187/shopguild/pkg/cerr"
)

// Server serves the admin account API. Every route is gated on the admins
// resource of the caller.
type Server struct {
	repo     Repository
	registry *access.Registry
	resolver *SubjectResolver
	bus      *eventbus.Bus
}

// NewServer returns the admin API. bus may be nil.
func NewServer(repo Repository, registry *access.Registry, resolver *SubjectResolver, bus *eventbus.Bus) *Server {
	return &Server{repo: repo, registry: registry, resolver: resolver, bus: bus}
}

func (s *Server) changed(adminID string) {
	s.resolver.Forget(adminID)
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventAdminChanged, string(access.ResourceAdmins), adminID)
	}
}

// Routes mounts the handlers; responses are written by the cerr middleware.
func (s *Server) Routes(r chi.Router) {
	r.Get("/me", s.me)
	r.Get("/", s.gated(access.ActionRead, s.list))
	r.Post("/", s.gated(access.ActionCreate, s.create))
	r.Get("/{adminID}", s.gated(access.ActionRead, s.get))
	r.Put("/{adminID}", s.gated(access.ActionUpdate, s.update))
	r.Delete("/{adminID}", s.gated(access.ActionDelete, s.remove))
}

func (s *Server) gated(action access.Action, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := session.UserFrom(ctx)
		if user == nil {
			cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "sign in required", nil)
			return
		}
		if !access.HasPermission(user, access.ResourceAdmins, action) {
			cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "permission denied", nil)
			return
		}
		next(w, r)
	}
}

// AdminResponse is an account together with the permissions it resolves to.
type AdminResponse struct {
	*Admin
	EffectivePermissions map[string]any `json:"effective_permissions"`
}

type meResponse struct {
	Admin       AdminResponse `json:"admin"`
	VisibleMenu []string      `json:"visible_menu"`
}

func (s *Server) toResponse(a *Admin) AdminResponse {
	perms := access.EffectivePermissions(a.Subject(s.registry))
	return AdminResponse{Admin: a, EffectivePermissions: access.MatrixToMap(perms)}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := session.UserFrom(ctx)
	if user == nil {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "sign in required", nil)
		return
	}
	a, err := s.repo.Get(ctx, session.AdminIDFrom(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	items := access.VisibleMenu(user)
	menu := make([]string, 0, len(items))
	for _, item := range items {
		menu = append(menu, string(item))
	}
	cerr.SetJSONResponse(ctx, meResponse{Admin: s.toResponse(a), VisibleMenu: menu})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admins, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]AdminResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, s.toResponse(a))
	}
	cerr.SetJSONResponse(ctx, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.load(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, s.toResponse(a))
}

// UpsertRequest is the body of create and update calls.
type UpsertRequest struct {
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        access.Role   `json:"role"`
	Permissions access.Matrix `json:"permissions,omitempty"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := s.decode(w, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	now := time.Now()
	a := &Admin{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.changed(a.ID)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, s.toResponse(a))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.load(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	req, err := s.decode(w, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a.Name = req.Name
	a.Email = req.Email
	a.Role = req.Role
	a.Permissions = req.Permissions
	a.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.changed(a.ID)
	cerr.SetJSONResponse(ctx, s.toResponse(a))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "adminID")
	if id == session.AdminIDFrom(ctx) {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "cannot delete the signed-in admin", nil)
		return
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "admin not found", err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.changed(id)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusNoContent, nil)
}

func (s *Server) load(r *http.Request) (*Admin, error) {
	id := chi.URLParam(r, "adminID")
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, cerr.NewError(cerr.NotFound, "admin not found", err)
	}
	return s.repo.Get(r.Context(), id)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*UpsertRequest, error) {
	var req UpsertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "malformed request body", err)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	e := cerr.NewError(cerr.InvalidArgument, "invalid admin", nil)
	if req.Name == "" {
		e.AddDetailMessageWithCode("name is required", "name.required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		e.AddDetailMessageWithCode("email is not a valid address", "email.format")
	}
	if !s.registry.Knows(req.Role) {
		e.AddDetailMessageWithCode(fmt.Sprintf("unknown role %q", req.Role), "role.known")
	}
	for res := range req.Permissions {
		if !res.Valid() {
			e.AddDetailMessageWithCode(fmt.Sprintf("unknown resource %q", res), "permissions.resource")
		}
	}
	if len(e.Details) > 0 {
		return nil, e
	}
	return &req, nil
}
