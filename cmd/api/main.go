package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/invmanager/invmanager-go/internal/config"
	"github.com/invmanager/invmanager-go/internal/crypto"
	"github.com/invmanager/invmanager-go/internal/handler"
	"github.com/invmanager/invmanager-go/internal/mail"
	"github.com/invmanager/invmanager-go/internal/middleware"
	"github.com/invmanager/invmanager-go/internal/repository"
	"github.com/invmanager/invmanager-go/internal/service"
	"github.com/invmanager/invmanager-go/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users  service.UserRepository
		resets service.ResetTokenRepository
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		memUsers := repository.NewMemoryUserRepository()
		users = memUsers
		resets = repository.NewMemoryResetTokenRepository(memUsers)
	default:
		db, err := repository.NewDB(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := repository.Migrate(ctx, db); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		users = repository.NewUserRepository(db)
		resets = repository.NewResetTokenRepository(db)
	}

	tokens, err := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		logger.Error("token issuer", "error", err)
		os.Exit(1)
	}

	var mailer service.Mailer
	if cfg.SMTPConfigured() {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
		}, logger)
	} else {
		logger.Warn("EMAIL_HOST not set, emails are not delivered")
		mailer = mail.NewLogSender(logger)
	}

	authCfg := service.AuthConfig{
		FrontendURL:   cfg.FrontendURL,
		MailFrom:      cfg.EmailUser,
		ResetTokenTTL: cfg.ResetTokenTTL,
		Logger:        logger,
	}

	if cfg.RedisAddr != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		authCfg.Revocations = repository.NewRevocationStore(rdb)
		logger.Info("session revocation enabled", "redis", cfg.RedisAddr)
	}

	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, storage.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			logger.Error("object storage setup failed", "error", err)
			os.Exit(1)
		}
		authCfg.Uploader = uploader
	}

	authService := service.NewAuthService(users, resets, tokens, mailer, authCfg)
	contactService := service.NewContactService(mailer, cfg.EmailUser, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:       handler.NewAuthHandler(authService),
		Contact:    handler.NewContactHandler(contactService),
		Gate:       middleware.RequireAuth(authService),
		RateLimit:  middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:     logger,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
