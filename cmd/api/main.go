package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"filmdb.org/internal/audit"
	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
	"filmdb.org/internal/config"
	"filmdb.org/internal/httpapi"
	"filmdb.org/internal/obs"
	"filmdb.org/internal/store/mem"
	"filmdb.org/internal/store/pg"
	"filmdb.org/internal/stream"
)

var (
	version = "0.1.0"
	commit  = "none"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		obs.Logger().Warn().Err(err).Msg("could not read .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}
	log := obs.InitLogger(obs.LogOptions{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		creds      auth.CredentialStore
		films      catalog.Store
		closeStore func() error
	)
	switch cfg.Store {
	case config.StoreMemory:
		store, err := mem.New(mem.Options{
			MaxFailedAttempts: cfg.Lockout.Threshold,
			LockoutDuration:   cfg.Lockout.Duration,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("memory store")
		}
		creds = store
		log.Warn().Str("username", mem.DefaultAdminUsername).Msg("memory store: film catalog disabled, default admin seeded")
	default:
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres store")
		}
		creds, films, closeStore = store, store, store.Close
	}

	events := stream.New(100)
	record := audit.Recorder(events)

	authn, err := auth.NewAuthenticator(creds, auth.WithOrigin(cfg.Session.Origin), auth.WithAudit(record))
	if err != nil {
		log.Fatal().Err(err).Msg("authenticator")
	}
	sessions := auth.NewSessions(cfg.Session.IdleTimeout)
	go sessions.RunSweeper(ctx, time.Minute)
	admin, err := auth.NewUserAdmin(creds, auth.WithAudit(record), auth.WithSessions(sessions))
	if err != nil {
		log.Fatal().Err(err).Msg("user admin")
	}
	tokens, err := auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}

	api, err := httpapi.New(httpapi.Deps{
		Auth:     authn,
		Admin:    admin,
		Catalog:  catalog.NewService(films, record),
		Sessions: sessions,
		Tokens:   tokens,
		Events:   events,
	}, httpapi.Limits{
		LoginPerSecond: cfg.Limits.LoginRate,
		LoginBurst:     cfg.Limits.LoginBurst,
		MaxBodyBytes:   cfg.Limits.MaxBodyBytes,
		CORSOrigins:    cfg.Limits.CORSOrigins,
		TrustedProxies: cfg.Limits.TrustedProxies,
	}, version)
	if err != nil {
		log.Fatal().Err(err).Msg("http api")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("store", cfg.Store).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http listen")
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
		}
		grpcServer = grpc.NewServer()
		health := httpapi.NewHealthServer(api)
		health.Register(grpcServer)
		go health.Run(ctx, 10*time.Second)
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Error().Err(err).Msg("grpc serve")
			}
		}()
	} else {
		log.Info().Msg("grpc health listener disabled")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}
	log.Info().Msg("stopped")
}
