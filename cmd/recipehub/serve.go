package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/api/router"
	"github.com/d60-Lab/recipehub/internal/imagestore"
	"github.com/d60-Lab/recipehub/internal/observability"
	"github.com/d60-Lab/recipehub/pkg/database"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		cfg := a.cfg

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := database.Migrate(a.db); err != nil {
				return err
			}
		}

		shutdownTracing, err := observability.InitTracing(ctx, cfg.Otel)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(sctx)
		}()
		sentryOn, err := observability.InitSentry(cfg.Sentry, Version)
		if err != nil {
			logger.Warn("sentry disabled", zap.Error(err))
		}
		if sentryOn {
			defer observability.FlushSentry()
		}

		images, err := imagestore.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		gin.SetMode(cfg.Server.Mode)
		engine := router.Setup(router.Options{
			Config:        cfg,
			Handler:       handler.New(a.services(images), cfg.Pagination),
			Health:        a.health,
			SentryEnabled: sentryOn,
		})
		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "run schema migration before serving")
}
