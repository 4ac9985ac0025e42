package http

import (
	"github.com/gin-gonic/gin"

	"github.com/meridiancap/riskradar/internal/infrastructure/auth"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/internal/interfaces/http/handlers"
	"github.com/meridiancap/riskradar/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies needed to
// construct the complete HTTP route tree.
type RouterConfig struct {
	Mode string // gin mode: "debug" | "release" | "test"

	AuthHandler       *handlers.AuthHandler
	AssessmentHandler *handlers.AssessmentHandler
	AnalysisHandler   *handlers.AnalysisHandler
	PortfolioHandler  *handlers.PortfolioHandler
	NewsHandler       *handlers.NewsHandler
	DashboardHandler  *handlers.DashboardHandler
	HealthHandler     *handlers.HealthHandler

	Tokens  *auth.TokenManager
	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter builds the gin engine: global middleware, public health and login
// endpoints, and the authenticated /api resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger, cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Health)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r.POST("/api/auth/login", cfg.AuthHandler.Login)

	api := r.Group("/api")
	api.Use(middleware.Auth(cfg.Tokens))

	api.POST("/auth/logout", cfg.AuthHandler.Logout)
	api.GET("/auth/me", cfg.AuthHandler.Me)

	registerAssessmentRoutes(api, cfg.AssessmentHandler)
	registerAnalysisRoutes(api, cfg.AnalysisHandler)
	registerPortfolioRoutes(api, cfg.PortfolioHandler)
	registerNewsRoutes(api, cfg.NewsHandler)
	registerDashboardRoutes(api, cfg.DashboardHandler)

	if cfg.HealthHandler != nil {
		api.GET("/sectors", cfg.HealthHandler.Sectors)
	}

	return r
}

func registerAssessmentRoutes(api *gin.RouterGroup, h *handlers.AssessmentHandler) {
	if h == nil {
		return
	}
	api.GET("/assessments", h.List)
	api.POST("/assessments", h.Create)
	api.GET("/assessments/:id", h.Get)
	api.DELETE("/assessments/:id", h.Delete)
	api.PATCH("/assessments/:id/scores/:scoreId", h.OverrideScore)
	api.PATCH("/assessments/:id/notes", h.UpdateNotes)
	api.GET("/export/:id", h.Export)
}

func registerAnalysisRoutes(api *gin.RouterGroup, h *handlers.AnalysisHandler) {
	if h == nil {
		return
	}
	api.POST("/analysis", h.Analyze)
	api.POST("/batch-analysis", h.AnalyzeBatch)
}

func registerPortfolioRoutes(api *gin.RouterGroup, h *handlers.PortfolioHandler) {
	if h == nil {
		return
	}
	api.GET("/portfolio", h.List)
	api.POST("/portfolio", h.Add)
	api.DELETE("/portfolio/:id", h.Remove)
	api.PUT("/portfolio/weights", h.UpdateWeights)
	api.POST("/portfolio/batch-add", h.BatchAdd)
}

func registerNewsRoutes(api *gin.RouterGroup, h *handlers.NewsHandler) {
	if h == nil {
		return
	}
	api.GET("/news", h.List)
	api.GET("/news/status", h.Status)
	api.POST("/news/scan", h.Scan)
}

func registerDashboardRoutes(api *gin.RouterGroup, h *handlers.DashboardHandler) {
	if h == nil {
		return
	}
	api.GET("/dashboard/stats", h.Stats)
	api.GET("/dashboard/risk-distribution", h.RiskDistribution)
	api.GET("/dashboard/domain-breakdown", h.DomainBreakdown)
	api.GET("/dashboard/sector-breakdown", h.SectorBreakdown)
}
