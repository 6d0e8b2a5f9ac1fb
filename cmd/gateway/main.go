package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/gateway"
	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/middleware"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "gateway",
		Short: "session-authenticating reverse proxy",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.LoadGateway(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runGateway(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runGateway(cfg *config.GatewayConfig) error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewGatewayCollector(registry)

	proxy, err := gateway.NewProxy(cfg.Routes)
	if err != nil {
		return fmt.Errorf("init proxy: %w", err)
	}
	filter := gateway.NewSessionFilter(cfg, collector)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(gateway.Recovery())
	engine.Use(gateway.StatusRecorder(collector.RecordRequest))
	engine.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	engine.Use(filter.Handle)
	engine.NoRoute(proxy.Handle)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info("gateway listening",
		zap.String("addr", addr),
		zap.String("auth_service", cfg.AuthServiceURL),
		zap.Int("routes", len(cfg.Routes)))
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("gateway stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
