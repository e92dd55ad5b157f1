package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"healthdir/internal/adapters/auth"
	server "healthdir/internal/adapters/http_server"
	"healthdir/internal/adapters/observability"
	"healthdir/internal/app"
	"healthdir/internal/bootstrap"
	"healthdir/internal/domain"
	"healthdir/internal/shared"
)

const (
	shutdownTimeout = 10 * time.Second
	loginBurst      = 5
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(reg)

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store unavailable")
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(cctx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	cache, closeCache := bootstrap.OpenCache(ctx, cfg)
	defer closeCache()

	images, uploadDir, err := bootstrap.OpenImages(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("image store unavailable")
	}

	// deps
	admin := app.NewAdminService(store, cache, images)
	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	authSvc := app.NewAuthService(store, auth.NewBcrypt(0), tokenIssuer(cfg))

	if cfg.SeedOnStart {
		seed(ctx, cfg, admin, authSvc, store)
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:           q,
		Admin:       admin,
		Auth:        authSvc,
		SlugWorkers: cfg.SlugWorkers,
		Ping:        store.Ping,
	}, server.RouteOptions{
		RequireAdmin: cfg.AdminAuthRequired,
		LoginLimiter: server.NewIPRateLimiter(cfg.LoginRPS, loginBurst).TrustProxies(cfg.TrustedProxies...),
		UploadDir:    uploadDir,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func tokenIssuer(cfg shared.Config) domain.TokenIssuer {
	if cfg.JWTSecret != "" {
		return auth.NewJWT(cfg.JWTSecret, cfg.TokenTTL)
	}
	return auth.NewStatic("", cfg.AdminUsername)
}

// seed failures are logged, not fatal: the API still serves what is stored.
func seed(ctx context.Context, cfg shared.Config, admin *app.AdminService, authSvc *app.AuthService, repo domain.Repository) {
	cat, err := app.DefaultCatalog()
	if err != nil {
		log.Error().Err(err).Msg("seed catalog unreadable")
		return
	}
	if _, err := app.NewSeeder(admin, repo, cat).EnsureSeeded(ctx); err != nil {
		log.Error().Err(err).Msg("seeding failed")
	}
	created, err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("admin bootstrap failed")
		return
	}
	if created {
		log.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	}
}
