package internal

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/admin"
	"github.com/kazz187/shopguild/internal/apiproxy"
	"github.com/kazz187/shopguild/internal/config"
	"github.com/kazz187/shopguild/internal/session"
	"github.com/kazz187/shopguild/pkg/cerr"
	"github.com/kazz187/shopguild/pkg/clog"
)

type Server struct {
	server       *http.Server
	env          *config.Env
	resolver     session.Resolver
	adminServer  *admin.Server
	accessServer *access.Server
	storeHandler *apiproxy.Handler
}

func NewServer(
	env *config.Env,
	resolver session.Resolver,
	adminServer *admin.Server,
	accessServer *access.Server,
	storeHandler *apiproxy.Handler,
) *Server {
	return &Server{
		env:          env,
		resolver:     resolver,
		adminServer:  adminServer,
		accessServer: accessServer,
		storeHandler: storeHandler,
	}
}

// Handler builds the full HTTP handler: REST routes under /api, the connect
// services and health checks, behind CORS and the API key check.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			middleware.RequestID,
			clog.SlogChiMiddleware(),
			cerr.NewConvertConnectErrorChiMiddleware(),
			session.Middleware(s.resolver),
		)
		r.Route("/admins", s.adminServer.Routes)
		r.Route("/store", s.storeHandler.Routes)
		r.Post("/store-events", s.storeHandler.Notify)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(access.AccessServiceName)))

	handlerOpts := connect.WithInterceptors(s.interceptors()...)
	path, handler := access.NewAccessServiceHandler(s.accessServer, handlerOpts)
	mux.Handle(path, session.Middleware(s.resolver)(handler))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx is the base context of every
// request, so cancelling it cancels in-flight upstream calls.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckUnaryFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for health endpoints.
		if r.URL.Path == "/health" || r.URL.Path == "/grpc.health.v1.Health/Check" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
