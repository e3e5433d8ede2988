package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/config"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/http/handlers"
	"github.com/oftalmo/records/internal/http/middlewares"
	"github.com/oftalmo/records/internal/observability"
	"github.com/oftalmo/records/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "oftalmo-records"

// AuthService logs users in and verifies the tokens it minted.
type AuthService interface {
	handlers.Authenticator
	middlewares.TokenVerifier
}

type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Metrics  http.Handler // nil falls back to the default prometheus registry
	DB       handlers.Pinger
	Auth     AuthService
	Patients handlers.PatientStore
	Records  handlers.RecordStore
	Limiter  ratelimit.Limiter
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.Env != "dev" && deps.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.Use(validationMetrics(deps.Prom))
	}
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders(deps.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(deps.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health, metrics, docs
	health := handlers.NewHealthHandler(deps.DB, serviceName)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(deps.Metrics))
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	am := middlewares.NewAuthMiddleware(deps.Auth)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	patientsHandler := handlers.NewPatientsHandler(deps.Patients)
	recordsHandler := handlers.NewClinicalRecordsHandler(deps.Records, deps.Patients)

	api := r.Group("/api")

	// auth
	login := []gin.HandlerFunc{authHandler.Login}
	if deps.Limiter != nil {
		limit := middlewares.RateLimit(deps.Limiter, middlewares.KeyByIP, func(*gin.Context) {
			deps.Prom.ObserveLogin("rate_limited")
		})
		login = append([]gin.HandlerFunc{limit}, login...)
	}
	api.POST("/auth/login", login...)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", am.RequireAuth(), authHandler.Me)

	authed := api.Group("", am.RequireAuth())
	adminOnly := am.RequireRole(user.RoleAdmin)

	// patients
	authed.GET("/patients", patientsHandler.ListPatients)
	authed.POST("/patients", patientsHandler.CreatePatient)
	authed.GET("/patients/:id", patientsHandler.GetPatientByID)
	authed.PUT("/patients/:id", patientsHandler.UpdatePatient)
	authed.DELETE("/patients/:id", adminOnly, patientsHandler.DeletePatient)

	// clinical records
	authed.GET("/patients/:id/clinical-records", recordsHandler.ListByPatient)
	authed.POST("/patients/:id/clinical-records", recordsHandler.Create)
	authed.GET("/clinical-records/:id", recordsHandler.GetByID)
	authed.PUT("/clinical-records/:id", recordsHandler.Update)
	authed.DELETE("/clinical-records/:id", adminOnly, recordsHandler.Delete)

	return r
}

// validationMetrics counts responses that carried a VAL_* error code.
func validationMetrics(p *observability.Prom) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		code, ok := handlers.ErrorCode(ctx)
		if ok && strings.HasPrefix(string(code), "VAL_") {
			p.ObserveValidationFailure(string(code))
		}
	}
}
