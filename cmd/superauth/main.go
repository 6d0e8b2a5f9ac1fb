package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/db"
	"github.com/xxxsen/superauth/internal/handler"
	"github.com/xxxsen/superauth/internal/job"
	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/middleware"
	"github.com/xxxsen/superauth/internal/notify"
	"github.com/xxxsen/superauth/internal/pricing"
	"github.com/xxxsen/superauth/internal/repo"
	"github.com/xxxsen/superauth/internal/schedule"
	"github.com/xxxsen/superauth/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "superauth",
		Short: "registration and session auth server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run auth server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.LoadAuth(configPath)
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

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.AuthConfig, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.Int("max_active_sessions", cfg.MaxActiveSessions),
		zap.Int("session_ttl_hours", cfg.SessionTTLHours),
	)

	userRepo := repo.NewUserRepo(conn)
	regOtpRepo := repo.NewRegistrationOtpRepo(conn)
	loginOtpRepo := repo.NewLoginOtpRepo(conn)
	sessionRepo := repo.NewSessionRepo(conn)
	txnRepo := repo.NewTxnRepo(conn)
	usernameRepo := repo.NewUsernameRepo(conn)

	mailSender := notify.NewEmailSender(cfg.Mail)
	whatsappSender := notify.NewWhatsAppSender(cfg.Twilio)

	rzpClient := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	paymentService := service.NewPaymentService(cfg.Razorpay, rzpClient.PaymentLink, txnRepo, usernameRepo)

	detector := pricing.NewDetector(cfg.Pricing)
	otpService := service.NewOtpService(regOtpRepo, loginOtpRepo, mailSender, whatsappSender, cfg.OtpValidityMinutes)
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTLHours, cfg.MaxActiveSessions)
	registrationService := service.NewRegistrationService(userRepo, usernameRepo, otpService, paymentService, detector, mailSender, whatsappSender)
	loginService := service.NewLoginService(userRepo, otpService, sessionService, cfg.MaxActiveSessions)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	deps := handler.RouterDeps{
		Registration: handler.NewRegistrationHandler(registrationService, collector),
		Login:        handler.NewLoginHandler(loginService, collector),
		Session:      handler.NewSessionHandler(loginService, collector),
		Payment:      handler.NewPaymentHandler(paymentService, cfg.Razorpay, collector),
		OtpRateLimit: middleware.RateLimit(time.Second),
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionCleanupJob(sessionService), cfg.CleanupSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewOtpCleanupJob(regOtpRepo, loginOtpRepo), cfg.CleanupSpec); err != nil {
		return err
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
			group.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
