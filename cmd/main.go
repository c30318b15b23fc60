package main

import (
	"context"
	"duochat/backend/internal/api/handler"
	"duochat/backend/internal/auth"
	"duochat/backend/internal/chathub"
	"duochat/backend/internal/config"
	"duochat/backend/internal/logger"
	"duochat/backend/internal/media"
	"duochat/backend/internal/storage"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Storage, *redis.Client) {
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}

	var rdb *redis.Client
	if cfg.BridgeEnabled() {
		rdb, err = storage.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect redis")
		}
	}

	log.Info().
		Str("driver", cfg.StoreDriver).
		Bool("bridge", rdb != nil).
		Msg("storage ready")
	return store, rdb
}

func main() {
	cfg, loaded := config.Load()
	log := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if !loaded {
		log.Debug().Msg("no .env file, using process environment")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, rdb := setupDependencies(ctx, cfg, log)

	hub := chathub.NewManagerService(log)
	go hub.Run(ctx)

	var bridge *chathub.RedisBridge
	if rdb != nil {
		bridge = chathub.NewRedisBridge(rdb, cfg.Redis.Prefix, hub, log)
		if err := bridge.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start redis bridge")
		}
		hub.SetRelay(bridge)
	}

	h := handler.NewHandler(hub, store, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), media.InlineResolver{}, log)
	h.SecureCookies = cfg.IsProduction()
	r := handler.NewRouter(h, handler.RouterOptions{
		FrontendURL:  cfg.FrontendURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if bridge != nil {
		bridge.Stop()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}
