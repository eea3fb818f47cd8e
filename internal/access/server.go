package access

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kazz187/shopguild/pkg/cerr"
)

const AccessServiceName = "shopguild.v1.AccessService"

const (
	AccessServiceGetRolePermissionsProcedure = "/" + AccessServiceName + "/GetRolePermissions"
	AccessServiceCheckPermissionProcedure    = "/" + AccessServiceName + "/CheckPermission"
	AccessServiceGetVisibleMenuProcedure     = "/" + AccessServiceName + "/GetVisibleMenu"
)

// SubjectFunc returns the caller of the current request, or nil.
type SubjectFunc func(ctx context.Context) *User

// Server implements the AccessService RPC handlers. Messages are
// google.protobuf.Struct so the UIs can call it with the plain JSON codec.
type Server struct {
	registry *Registry
	subject  SubjectFunc
}

func NewServer(registry *Registry, subject SubjectFunc) *Server {
	return &Server{registry: registry, subject: subject}
}

// GetRolePermissions returns the matrix a role receives when an admin has no
// stored permissions. Request: {role}. Response: {role, permissions}.
func (s *Server) GetRolePermissions(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	role := Role(stringField(req.Msg, "role"))
	return respond(map[string]any{
		"role":        string(role),
		"known":       s.registry.Knows(role),
		"permissions": MatrixToMap(s.registry.PermissionsFor(role)),
	})
}

// CheckPermission answers for the caller. Request: {resource, action}.
// Unknown resources or actions answer false rather than failing.
func (s *Server) CheckPermission(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	allowed := HasPermission(
		s.subject(ctx),
		Resource(stringField(req.Msg, "resource")),
		Action(stringField(req.Msg, "action")),
	)
	return respond(map[string]any{"allowed": allowed})
}

// GetVisibleMenu returns the caller's menu items in display order.
func (s *Server) GetVisibleMenu(ctx context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	items := VisibleMenu(s.subject(ctx))
	list := make([]any, 0, len(items))
	for _, item := range items {
		list = append(list, string(item))
	}
	return respond(map[string]any{"items": list})
}

func stringField(msg *structpb.Struct, key string) string {
	return msg.GetFields()[key].GetStringValue()
}

func respond(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	return connect.NewResponse(st), nil
}

// MatrixToMap renders m over every known resource and action, the shape the
// UIs and the admin API use.
func MatrixToMap(m Matrix) map[string]any {
	out := make(map[string]any, len(allResources))
	for _, res := range allResources {
		actions := make(map[string]any, len(allActions))
		for _, act := range allActions {
			actions[string(act)] = m.Allows(res, act)
		}
		out[string(res)] = actions
	}
	return out
}

// NewAccessServiceHandler builds the HTTP handler for AccessService and the
// path prefix to mount it on.
func NewAccessServiceHandler(svc *Server, opts ...connect.HandlerOption) (string, http.Handler) {
	readOnlyOpts := connect.WithHandlerOptions(
		connect.WithHandlerOptions(opts...),
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
	)
	getRolePermissions := connect.NewUnaryHandler(AccessServiceGetRolePermissionsProcedure, svc.GetRolePermissions, readOnlyOpts)
	checkPermission := connect.NewUnaryHandler(AccessServiceCheckPermissionProcedure, svc.CheckPermission, readOnlyOpts)
	getVisibleMenu := connect.NewUnaryHandler(AccessServiceGetVisibleMenuProcedure, svc.GetVisibleMenu, readOnlyOpts)

	return "/" + AccessServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AccessServiceGetRolePermissionsProcedure:
			getRolePermissions.ServeHTTP(w, r)
		case AccessServiceCheckPermissionProcedure:
			checkPermission.ServeHTTP(w, r)
		case AccessServiceGetVisibleMenuProcedure:
			getVisibleMenu.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
