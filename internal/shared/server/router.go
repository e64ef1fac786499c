package server

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/runs"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/tailor"
)

const editsRateGroup = "EDITS"

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Config  config.Config
	Log     *telemetry.Logger
	Metrics *metrics.Registry
	Runs    runs.Repo
	// DB is nil when run history is kept in memory.
	DB *sql.DB
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	rule := middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.APIKey),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    map[string]middleware.RateLimitRule{editsRateGroup: rule},
			GroupFor: rateGroup,
		}),
	)

	r.GET("/metrics", deps.Metrics.Handler())

	api := r.Group("/api/v1")
	var pinger health.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	healthSvc := health.NewService(pinger)
	api.GET("/health", func(c *gin.Context) {
		body, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	tailor.NewHandler(deps.Metrics).RegisterRoutes(api)

	repo := deps.Runs
	if repo == nil {
		repo = runs.NewMemoryRepo()
	}
	runs.NewHandler(repo).RegisterRoutes(api)

	return r
}

// rateGroup limits the edit endpoints only; reads are not throttled.
func rateGroup(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/edits/") {
		return editsRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
