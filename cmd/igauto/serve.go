package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-ig-automation/docs"
	"github.com/tbourn/go-ig-automation/internal/config"
	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/graph"
	httpapi "github.com/tbourn/go-ig-automation/internal/http"
	"github.com/tbourn/go-ig-automation/internal/jobs"
	"github.com/tbourn/go-ig-automation/internal/kv"
	"github.com/tbourn/go-ig-automation/internal/observability"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/sysutil"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver, dashboard API and cleanup scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default \":$PORT\")")
	return cmd
}

// runServe starts every component and blocks until SIGINT/SIGTERM or a
// fatal component error, then shuts down gracefully.
func runServe(parent context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	b, closeBackends, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackends()

	if b.Creds.Path() != "" {
		w, err := credentials.NewWatcher(b.Creds)
		if err != nil {
			return fmt.Errorf("token watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("token watcher: %w", err)
		}
		defer w.Stop()
	}
	if st := b.Creds.Status(); !st.Configured {
		log.Warn().Msg("no bot token configured; comment replies will be skipped")
	}

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = Version

	r := gin.New()
	svc := httpapi.RegisterRoutes(r, b, cfg)

	srv := &http.Server{
		Addr:              sysutil.FirstNonEmpty(addr, ":"+cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return log.Logger.WithContext(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", Version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(sctx)
	})

	if cfg.CleanupCron != "" {
		job, err := jobs.NewCleanup(cfg.CleanupCron, svc.Maintenance, log.Logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := job.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Info().Msg("scheduled cleanup disabled")
	}

	return g.Wait()
}

// openBackends connects Redis and SQLite and builds the Graph client and the
// bot credential. The returned func closes what was opened.
func openBackends(ctx context.Context, cfg config.Config) (httpapi.Backends, func(), error) {
	sctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	store, err := kv.Open(sctx, cfg.RedisURL)
	if err != nil {
		return httpapi.Backends{}, nil, fmt.Errorf("redis: %w", err)
	}
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		_ = store.Close()
		return httpapi.Backends{}, nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = store.Close()
		return httpapi.Backends{}, nil, fmt.Errorf("migrate: %w", err)
	}
	creds, err := credentials.New(cfg.Graph.BotToken, cfg.Graph.BotTokenFile)
	if err != nil {
		_ = store.Close()
		return httpapi.Backends{}, nil, fmt.Errorf("bot token: %w", err)
	}

	closeAll := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return httpapi.Backends{
		DB:    db,
		Store: store,
		Graph: graph.New(cfg.Graph.BaseURL, cfg.Graph.Timeout),
		Creds: creds,
	}, closeAll, nil
}
