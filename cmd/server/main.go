// cmd/server/main.go
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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/database"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/middleware"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/router"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.Session.SecretKey)

	ctx := context.Background()

	var (
		files       services.FileRecorder
		submissions services.SubmissionStore
		audit       middleware.AuditRecorder
	)
	if cfg.Database.Enabled {
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db)

		if err := database.RunMigrations(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}

		repo := services.NewSubmissionRepository(db)
		files, submissions, audit = repo, repo, repo
	} else {
		logrus.Warn("Database disabled: submissions are only emailed")
	}

	var (
		sessions services.SessionStore = services.NewMemorySessionStore(cfg.Session.TTL)
		cache    services.LookupCache
		rdb      *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedis(ctx, cfg.Redis)
		switch {
		case err == nil:
			defer rdb.Close()
			sessions = services.NewRedisSessionStore(rdb, cfg.Session.TTL)
			cache = services.NewRedisLookupCache(rdb)
		case cfg.IsProduction():
			logrus.WithError(err).Fatal("Failed to connect to Redis")
		default:
			logrus.WithError(err).Warn("Redis unavailable, keeping sessions in memory")
		}
	}

	addresses := services.NewAddressService(cfg.Lookup, cache)
	registry := services.NewRegistryService(cfg.Lookup, cache)
	wizardService := services.NewWizardService(sessions, addresses, registry, cfg.Session.TTL)

	storageService, err := services.NewStorageService(cfg, files)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	mailer, err := services.NewMailer(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize mailer")
	}
	notificationService := services.NewNotificationService(mailer, cfg)
	applicationService := services.NewApplicationService(wizardService, submissions, notificationService)

	// Initialize router
	r := router.Initialize(cfg, router.Dependencies{
		Wizard:       wizardService,
		Applications: applicationService,
		Storage:      storageService,
		Addresses:    addresses,
		Registry:     registry,
		Audit:        audit,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
