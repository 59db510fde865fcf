// internal/router/router.go
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/handlers"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/middleware"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

// Dependencies are the services the routes are served by. Audit is nil
// when no database is configured.
type Dependencies struct {
	Wizard       *services.WizardService
	Applications *services.ApplicationService
	Storage      *services.StorageService
	Addresses    wizard.AddressLookup
	Registry     wizard.RegistryLookup
	Audit        middleware.AuditRecorder
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize handlers
	wizardHandler := handlers.NewWizardHandler(deps.Wizard, deps.Applications)
	uploadHandler := handlers.NewUploadHandler(deps.Storage, deps.Wizard)
	lookupHandler := handlers.NewLookupHandler(deps.Addresses, deps.Registry)

	limits := middleware.NewRateLimits(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.I18nMiddleware())
	if deps.Audit != nil {
		r.Use(middleware.AuditLogMiddleware(deps.Audit))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(limits.General.Middleware())
	{
		v1.POST("/applications", wizardHandler.Start)

		application := v1.Group("/applications/:id")
		application.Use(middleware.SessionRequired())
		{
			application.GET("", wizardHandler.Get)
			application.PATCH("/sections/:section", wizardHandler.UpdateSection)
			application.GET("/steps/:step/violations", wizardHandler.StepViolations)
			application.POST("/next", wizardHandler.Next)
			application.POST("/previous", wizardHandler.Previous)
			application.POST("/files/:category", limits.Upload.Middleware(), uploadHandler.Upload)
			application.POST("/submit", wizardHandler.Submit)
		}

		lookups := v1.Group("/lookups")
		lookups.Use(limits.Lookup.Middleware())
		{
			lookups.GET("/postal-codes/:code", lookupHandler.PostalCode)
			lookups.GET("/companies/:cnpj", lookupHandler.Company)
		}
	}

	// Static file serving for local uploads (development)
	if !cfg.IsProduction() && cfg.AWS.AccessKeyID == "" && strings.HasPrefix(cfg.Upload.LocalBaseURL, "/") {
		r.Static(cfg.Upload.LocalBaseURL, cfg.Upload.LocalDir)
	}

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "Accept-Language", "X-Client-Info", "Apikey"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	return c
}
