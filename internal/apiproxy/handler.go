package apiproxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/eventbus"
	"github.com/kazz187/shopguild/internal/session"
	"github.com/kazz187/shopguild/pkg/cerr"
)

const maxRequestSize = 1 << 20

// Handler exposes the upstream API to the UIs, checking every call against
// the caller's permissions first.
type Handler struct {
	client *Client
	bus    *eventbus.Bus
}

func NewHandler(client *Client, bus *eventbus.Bus) *Handler {
	return &Handler{client: client, bus: bus}
}

// Routes mounts the proxy; the first path segment names the resource.
func (h *Handler) Routes(r chi.Router) {
	r.HandleFunc("/{resource}", h.forward)
	r.HandleFunc("/{resource}/*", h.forward)
}

// ActionFor maps an HTTP method to the action it performs.
func ActionFor(method string) (access.Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return access.ActionRead, true
	case http.MethodPost:
		return access.ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return access.ActionUpdate, true
	case http.MethodDelete:
		return access.ActionDelete, true
	}
	return "", false
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resource := access.Resource(chi.URLParam(r, "resource"))
	if !resource.Valid() {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "unknown resource", nil)
		return
	}
	action, ok := ActionFor(r.Method)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unimplemented, "method not supported", nil)
		return
	}
	req := &Request{
		Method: r.Method,
		Path:   string(resource),
		Query:  r.URL.Query(),
	}
	if req.Method == http.MethodHead {
		req.Method = http.MethodGet
	}
	if rest := strings.Trim(chi.URLParam(r, "*"), "/"); rest != "" {
		req.Path += "/" + rest
	}
	// Permissions are checked on the first segment, so the path must not escape it.
	if err := req.Validate(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	user := session.UserFrom(ctx)
	if user == nil {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "sign in required", nil)
		return
	}
	if !access.HasPermission(user, resource, action) {
		cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "permission denied", nil)
		return
	}

	if action != access.ActionRead {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "request body too large", err)
			return
		}
		if len(body) > 0 {
			req.Body = body
		}
	}

	resp, err := h.client.Do(ctx, req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.MarkWritten(ctx)
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

type changeNotification struct {
	Resource string `json:"resource"`
	Path     string `json:"path"`
}

// Notify accepts change notifications from the commerce backend for writes
// made outside the back-office, so cached reads are dropped early.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var n changeNotification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&n); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "malformed notification", err)
		return
	}
	if !access.Resource(n.Resource).Valid() {
		cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid notification", nil).
			AddDetailMessageWithCode("unknown resource "+n.Resource, "resource.known"))
		return
	}
	h.bus.PublishNew(eventbus.EventResourceChanged, n.Resource, n.Path)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusAccepted, map[string]string{"status": "accepted"})
}
