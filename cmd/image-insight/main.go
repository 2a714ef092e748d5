package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"

	"github.com/ironsheep/image-insight/internal/config"
	"github.com/ironsheep/image-insight/internal/detection"
	"github.com/ironsheep/image-insight/internal/followup"
	"github.com/ironsheep/image-insight/internal/httpapi"
	"github.com/ironsheep/image-insight/internal/llm"
	"github.com/ironsheep/image-insight/internal/llm/gemini"
	"github.com/ironsheep/image-insight/internal/llm/openai"
	"github.com/ironsheep/image-insight/internal/llm/stub"
	"github.com/ironsheep/image-insight/internal/ocr"
	"github.com/ironsheep/image-insight/internal/ocr/tesseract"
	"github.com/ironsheep/image-insight/internal/pipeline"
	"github.com/ironsheep/image-insight/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	mcp := false
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-insight %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--mcp", "mcp":
			mcp = true
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q, see --help\n", os.Args[1])
			os.Exit(2)
		}
	}

	if err := config.LoadDotEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg := config.Load()

	// Logs always go to stderr; in MCP mode stdout carries the protocol
	setupLogging(cfg, os.Stderr)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	analyzer, words, err := buildAnalyzer(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build analysis pipeline")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":        Version,
		"commit":         GitCommit,
		"engines":        analyzer.Engines(),
		"feature_parity": cfg.FeatureParity,
	}).Info("starting image insight")

	if mcp {
		srv := server.New(analyzer, server.WithVersion(Version), server.WithWordFinder(words))
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("mcp server error")
		}
		return
	}

	if err := serveHTTP(ctx, cfg, analyzer); err != nil {
		log.WithError(err).Fatal("http server error")
	}
}

func printHelp() {
	fmt.Println("image-insight - object detection, OCR and follow-up questions for images")
	fmt.Println()
	fmt.Println("Usage: image-insight [option]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --mcp            Serve MCP over stdin/stdout instead of HTTP")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  PORT=5000                   HTTP listen port")
	fmt.Println("  DETECTOR=shapes|remote      Object detection backend")
	fmt.Println("  INFERENCE_URL=...           Prediction endpoint for DETECTOR=remote")
	fmt.Println("  LABELS_PATH=...             YAML or JSON class names for the remote detector")
	fmt.Println("  OCR_LANGUAGES=eng           Comma separated Tesseract languages")
	fmt.Println("  LLM_PROVIDER=openai|gemini|stub")
	fmt.Println("  OPENAI_API_KEY, GEMINI_API_KEY")
	fmt.Println("  FEATURE_PARITY=true         Run every stage for every endpoint")
	fmt.Println("  LOG_LEVEL=info, LOG_FORMAT=text|json")
}

func setupLogging(cfg *config.Config, w io.Writer) {
	if cfg.LogFormat == "json" {
		log.SetHandler(json.New(w))
	} else {
		log.SetHandler(text.New(w))
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}
	log.SetLevel(level)

	if level == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// buildAnalyzer wires the engines cfg selects. The tesseract engine is also
// returned for the MCP word tool.
func buildAnalyzer(cfg *config.Config) (*pipeline.Analyzer, *tesseract.Engine, error) {
	det, err := buildDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	words := tesseract.New(tesseract.Config{
		Languages:      cfg.OCRLanguages,
		TessdataPrefix: cfg.TessdataPrefix,
	})
	log.WithField("languages", words.Languages()).Debug("tesseract configured")

	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, nil, err
	}
	gen := followup.NewGenerator(completer)
	gen.Timeout = cfg.LLMTimeout
	gen.Temperature = cfg.LLMTemperature
	gen.MaxTokens = cfg.LLMMaxTokens

	return pipeline.New(pipeline.Config{
		Detector:      det,
		Reader:        ocr.NewAdapter(words),
		Followups:     gen,
		FeatureParity: cfg.FeatureParity,
	}), words, nil
}

func buildDetector(cfg *config.Config) (*detection.Adapter, error) {
	var labels detection.LabelMap
	if cfg.LabelsPath != "" {
		var err error
		if labels, err = detection.LoadLabelMap(cfg.LabelsPath); err != nil {
			return nil, err
		}
	}

	switch cfg.Detector {
	case config.DetectorRemote:
		engine, err := detection.NewRemoteEngine(detection.RemoteConfig{
			URL:     cfg.InferenceURL,
			Timeout: cfg.InferenceTimeout,
			Labels:  labels,
		})
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := engine.CheckHealth(ctx); err != nil {
			// Detection fails per request until the service comes up.
			log.WithError(err).WithField("url", cfg.InferenceURL).Warn("inference service not healthy")
		}
		return detection.NewAdapter(engine, labels), nil
	default:
		return detection.NewAdapter(detection.NewShapeEngine(detection.ShapeConfig{}), labels), nil
	}
}

func buildCompleter(cfg *config.Config) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		c := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		log.WithField("model", c.Model()).Debug("openai completer configured")
		return c, nil
	case config.ProviderGemini:
		e := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		log.WithField("model", e.Model).Debug("gemini completer configured")
		return e, nil
	case config.ProviderStub:
		return stub.NewClient(), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}

func serveHTTP(ctx context.Context, cfg *config.Config, analyzer *pipeline.Analyzer) error {
	router := httpapi.NewRouter(analyzer, httpapi.Options{
		Version:         Version,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":       cfg.Port,
			"rate_limit": cfg.RateLimitPerMin,
			"origins":    cfg.AllowedOrigins,
		}).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
