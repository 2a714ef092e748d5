package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Detector backends.
const (
	DetectorRemote = "remote"
	DetectorShapes = "shapes"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Config holds all configuration for the image insight service
type Config struct {
	// Server configuration
	Port              string
	AllowedOrigins    []string
	RateLimitPerMin   int
	MaxUploadBytes    int64
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Object detection
	Detector         string
	InferenceURL     string
	InferenceTimeout time.Duration
	LabelsPath       string

	// OCR
	OCRLanguages   []string
	TessdataPrefix string

	// Follow-up generation
	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTimeout     time.Duration
	LLMTemperature float64
	LLMMaxTokens   int

	// Pipeline
	FeatureParity bool
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "5000"),
		AllowedOrigins:    getListEnv("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMin:   getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		MaxUploadBytes:    int64(getIntEnv("MAX_UPLOAD_BYTES", 20<<20)),
		ReadHeaderTimeout: getDurationEnv("READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownTimeout:   getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Detector:         strings.ToLower(getEnv("DETECTOR", DetectorShapes)),
		InferenceURL:     getEnv("INFERENCE_URL", ""),
		InferenceTimeout: getDurationEnv("INFERENCE_TIMEOUT", 30*time.Second),
		LabelsPath:       getEnv("LABELS_PATH", ""),

		OCRLanguages:   getListEnv("OCR_LANGUAGES", []string{"eng"}),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMTimeout:     getDurationEnv("LLM_TIMEOUT", 20*time.Second),
		LLMTemperature: getFloatEnv("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   getIntEnv("LLM_MAX_TOKENS", 300),

		FeatureParity: getBoolEnv("FEATURE_PARITY", true),
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be a number, got %q", c.Port))
	}

	switch c.Detector {
	case DetectorShapes:
	case DetectorRemote:
		if c.InferenceURL == "" {
			errs = append(errs, errors.New("INFERENCE_URL is required when DETECTOR=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("DETECTOR must be %q or %q, got %q", DetectorRemote, DetectorShapes, c.Detector))
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	case ProviderStub:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be openai, gemini or stub, got %q", c.LLMProvider))
	}

	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errs = append(errs, fmt.Errorf("LLM_TEMPERATURE must be within [0,2], got %v", c.LLMTemperature))
	}
	if c.LLMMaxTokens <= 0 {
		errs = append(errs, errors.New("LLM_MAX_TOKENS must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if len(c.OCRLanguages) == 0 {
		errs = append(errs, errors.New("OCR_LANGUAGES must name at least one language"))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
