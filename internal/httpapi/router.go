package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/image-insight/internal/metrics"
	"github.com/ironsheep/image-insight/internal/pipeline"
)

// Routes.
const (
	EndPointHealth  = "/health"
	EndPointMetrics = "/metrics"
	EndPointDetect  = "/detect"
	EndPointCaption = "/caption"
	EndPointOCR     = "/ocr"
	EndPointAnalyze = "/analyze"
)

// Options configures the router.
type Options struct {
	Service         string
	Version         string
	AllowedOrigins  []string
	RateLimitPerMin int
	MaxUploadBytes  int64
}

// NewRouter builds the gin engine serving the analysis API.
func NewRouter(analyzer *pipeline.Analyzer, opts Options) *gin.Engine {
	metrics.Register()

	if opts.Service == "" {
		opts.Service = "image-insight"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router := gin.New()
	router.Use(RequestContext(), Recovery(), CORS(opts.AllowedOrigins))

	router.GET(EndPointHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"service":        opts.Service,
			"version":        opts.Version,
			"engines":        analyzer.Engines(),
			"feature_parity": analyzer.FeatureParity(),
		})
	})
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	h := NewHandler(analyzer, opts.MaxUploadBytes)
	rateLimited := router.Group("/")
	rateLimited.Use(RateLimitMiddleware(opts.RateLimitPerMin))
	{
		rateLimited.POST(EndPointDetect, h.Analyze(pipeline.ModeDetect))
		rateLimited.POST(EndPointCaption, h.Analyze(pipeline.ModeDetect))
		rateLimited.POST(EndPointOCR, h.Analyze(pipeline.ModeOCR))
		rateLimited.POST(EndPointAnalyze, h.Analyze(pipeline.ModeAnalyze))
	}

	return router
}
