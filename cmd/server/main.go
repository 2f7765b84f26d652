package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rackhouse/poolhall-backend/internal/config"
	"github.com/rackhouse/poolhall-backend/internal/hall"
	"github.com/rackhouse/poolhall-backend/internal/httpapi"
	"github.com/rackhouse/poolhall-backend/internal/hub"
	"github.com/rackhouse/poolhall-backend/internal/notify"
	"github.com/rackhouse/poolhall-backend/internal/ratelimit"
	"github.com/rackhouse/poolhall-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	var log *zap.Logger
	if cfg.Env == "prod" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("store", zap.Error(err))
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiting disabled", zap.Error(err))
		} else {
			limiter = ratelimit.New(rdb, 60, time.Minute, log)
		}
	}

	notifier := notify.New(cfg.AmqpURL, log)

	opts := hall.Options{Logger: log}
	if notifier != nil {
		opts.Notifier = notifier
	}
	h := hub.New(ctx, opts)

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:       h,
		Store:     st,
		Limiter:   limiter,
		Logger:    log,
		JWTSecret: cfg.JWTSecret,
		InviteTTL: cfg.InviteTTL,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
