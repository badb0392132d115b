package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/incident-reporter/api/swagger"
	"github.com/noah-isme/incident-reporter/internal/handler"
	"github.com/noah-isme/incident-reporter/internal/middleware"
	"github.com/noah-isme/incident-reporter/internal/models"
	"github.com/noah-isme/incident-reporter/internal/repository"
	"github.com/noah-isme/incident-reporter/internal/service"
	"github.com/noah-isme/incident-reporter/pkg/config"
	"github.com/noah-isme/incident-reporter/pkg/logger"
	corsmiddleware "github.com/noah-isme/incident-reporter/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/incident-reporter/pkg/middleware/requestid"
	"github.com/noah-isme/incident-reporter/pkg/storage"
)

const (
	sessionIssuer = "incident-reporter"
	uploadsPrefix = "/uploads"
)

// SessionStore persists session state between requests.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.SessionState, error)
	Save(ctx context.Context, state *models.SessionState) error
	Delete(ctx context.Context, id string) error
}

// Dependencies groups the services the router exposes.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        handler.Pinger
	Metrics   *service.MetricsService
	Auth      *service.AuthService
	Incidents *service.IncidentService
	Exports   *service.ExportService
	Uploads   *service.UploadService
}

// NewDependencies wires repositories and services on top of an open database and session store.
func NewDependencies(cfg *config.Config, db *sqlx.DB, sessions SessionStore, logger *zap.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	metrics := service.NewMetricsService()

	files, err := storage.NewLocalStorage(cfg.Upload.Dir, uploadsPrefix)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}
	uploads := service.NewUploadService(files, metrics, logger, service.UploadServiceConfig{
		MaxFileSize:  cfg.Upload.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Upload.AllowedMIMEs,
	})

	incidents := service.NewIncidentService(repository.NewIncidentRepository(db), uploads, metrics, validate, logger)

	auth, err := service.NewAuthService(sessions, metrics, validate, logger, service.AuthConfig{
		WorkerPassword:  cfg.Auth.WorkerPassword,
		ManagerPassword: cfg.Auth.ManagerPassword,
		SessionSecret:   cfg.Session.Secret,
		SessionTTL:      cfg.Session.TTL,
		Issuer:          sessionIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	return &Dependencies{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Metrics:   metrics,
		Auth:      auth,
		Incidents: incidents,
		Exports:   service.NewExportService(incidents, logger),
		Uploads:   uploads,
	}, nil
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps *Dependencies) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Session(deps.Auth, deps.Logger))

	pages := handler.NewPageHandler(cfg.Assets.ViewsDir)
	authHandler := handler.NewAuthHandler(deps.Auth, cfg.Session.Secure)
	workerHandler := handler.NewWorkerHandler(deps.Incidents, deps.Uploads.MaxFileSize())
	incidentHandler := handler.NewIncidentHandler(deps.Incidents, deps.Exports)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics.Handler(), deps.DB, deps.Logger)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	r.GET("/", pages.Root)

	worker := r.Group("/worker")
	worker.GET("/login", pages.Login)
	worker.POST("/login", authHandler.WorkerLogin)
	worker.GET("", middleware.RequireRole(models.RoleWorker), pages.WorkerForm)
	worker.POST("/submit", middleware.RequireRole(models.RoleWorker), workerHandler.Submit)

	manager := r.Group("/manager")
	manager.GET("/login", pages.Login)
	manager.POST("/login", authHandler.ManagerLogin)
	manager.GET("", middleware.RequireRole(models.RoleManager), pages.ManagerDashboard)

	api := r.Group("/api")
	api.POST("/incidents", incidentHandler.Create)
	api.POST("/logout", authHandler.Logout)

	managed := api.Group("/incidents", middleware.RequireRole(models.RoleManager))
	managed.GET("", incidentHandler.List)
	managed.GET("/export", incidentHandler.Export)
	managed.GET("/:id", incidentHandler.Get)
	managed.PATCH("/:id", incidentHandler.UpdateStatus)

	r.Static(uploadsPrefix, cfg.Upload.Dir)
	r.NoRoute(staticFallback(cfg.Assets.PublicDir))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// staticFallback serves files from the public directory for paths no route claimed.
func staticFallback(dir string) gin.HandlerFunc {
	files := http.FileServer(gin.Dir(dir, false))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
