package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"

	server "github.com/kazz187/shopguild/internal"
	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/admin"
	adminrepo "github.com/kazz187/shopguild/internal/admin/repositoryimpl"
	"github.com/kazz187/shopguild/internal/apiproxy"
	"github.com/kazz187/shopguild/internal/config"
	"github.com/kazz187/shopguild/internal/eventbus"
	"github.com/kazz187/shopguild/internal/respcache"
	"github.com/kazz187/shopguild/internal/session"
	"github.com/kazz187/shopguild/pkg/clog"
	"github.com/kazz187/shopguild/pkg/panicerr"
	"github.com/kazz187/shopguild/pkg/storage"
)

// Accounts change rarely; keep them for a fraction of the response window.
const adminCacheMaxAge = 30 * time.Second

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(true))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup permission registry
	registry := access.NewRegistry()
	policyFile := env.PolicyEnv.File
	if policyFile != "" {
		if err := registry.Load(policyFile); err != nil {
			slog.Error("failed to load policy", "path", policyFile, "error", err)
			os.Exit(1)
		}
	}

	// Setup caches. Both are process-wide and injected into their consumers.
	responseCache := respcache.New[*apiproxy.Response](
		respcache.WithMaxAge(env.MaxAge),
		respcache.WithMaxEntries(env.MaxEntries),
	)
	adminCache := respcache.New[*admin.Admin](respcache.WithMaxAge(min(adminCacheMaxAge, env.MaxAge)))

	bus := eventbus.New()

	// Setup upstream client
	httpClient := apiproxy.NewHTTPClient(ctx, env.Timeout, apiproxy.Credentials{
		ClientID:     env.ClientID,
		ClientSecret: env.ClientSecret,
		TokenURL:     env.TokenURL,
		Scopes:       env.Scopes,
	})
	client, err := apiproxy.NewClient(env.UpstreamEnv.URL,
		apiproxy.WithHTTPClient(httpClient),
		apiproxy.WithCache(responseCache),
		apiproxy.WithBus(bus),
	)
	if err != nil {
		slog.Error("failed to create upstream client", "error", err)
		os.Exit(1)
	}
	invalidator := apiproxy.NewInvalidator(bus, client)
	audit := eventbus.NewAuditLog(bus)

	// Setup servers
	adminRepo := adminrepo.NewYAMLRepository(store)
	resolver := admin.NewSubjectResolver(adminRepo, registry, adminCache)
	srv := server.NewServer(
		env,
		resolver,
		admin.NewServer(adminRepo, registry, resolver, bus),
		access.NewServer(registry, session.UserFrom),
		apiproxy.NewHandler(client, bus),
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(panicerr.SafeContext(invalidator.Run))
	p.Go(panicerr.SafeContext(audit.Run))
	if policyFile != "" {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			return registry.Watch(ctx, policyFile)
		}))
	}
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}))
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}))

	if err := p.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
