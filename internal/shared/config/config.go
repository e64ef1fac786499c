package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// minJobIDLength matches the shortest ID limit the bulk deduper can honor.
const minJobIDLength = 8

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	APIKey          string
	RateLimitRPS    float64
	RateLimitBurst  int

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string
	Temperature  float64

	Risk                 string
	OnError              string
	OutputDir            string
	MaxResolveIterations int

	CacheEnabled bool
	CacheDir     string
	CacheTTL     time.Duration

	Parallel       int
	FailFast       bool
	RetryAttempts  int
	RetryBaseDelay time.Duration
	MaxIDLength    int

	// SettingsFile is the YAML overlay that was applied, if any.
	SettingsFile string
}

// Load reads configuration from environment variables with defaults, then applies the optional
// YAML settings file named by TAILOR_CONFIG (default .tailor/config.yaml).
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		APIKey:          os.Getenv("TAILOR_API_KEY"),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		Temperature:  getFloat("LLM_TEMPERATURE", 0.2),

		Risk:                 getEnv("TAILOR_RISK", "med"),
		OnError:              getEnv("TAILOR_ON_ERROR", "ask"),
		OutputDir:            getEnv("TAILOR_OUTPUT_DIR", "output"),
		MaxResolveIterations: getInt("TAILOR_MAX_RESOLVE_ITERATIONS", 0),

		CacheEnabled: getBool("TAILOR_CACHE_ENABLED", true),
		CacheDir:     getEnv("TAILOR_CACHE_DIR", ".tailor/cache"),
		CacheTTL:     time.Duration(getInt("TAILOR_CACHE_TTL_DAYS", 7)) * 24 * time.Hour,

		Parallel:       getInt("TAILOR_PARALLEL", 1),
		FailFast:       getBool("TAILOR_FAIL_FAST", false),
		RetryAttempts:  getInt("TAILOR_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: time.Duration(getInt("TAILOR_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		MaxIDLength:    getInt("TAILOR_MAX_ID_LENGTH", 50),
	}

	path := getEnv("TAILOR_CONFIG", defaultSettingsFile)
	if err := applySettingsFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration combinations that cannot work.
func (c Config) Validate() error {
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be >= 1, got %d", c.Parallel)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be >= 1, got %d", c.RetryAttempts)
	}
	if c.MaxIDLength < minJobIDLength {
		return fmt.Errorf("max id length must be >= %d, got %d", minJobIDLength, c.MaxIDLength)
	}
	if c.MaxResolveIterations < 0 {
		return fmt.Errorf("max resolve iterations must be >= 0, got %d", c.MaxResolveIterations)
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when OBJECT_STORE=s3")
	}
	if c.Env == "production" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in production")
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
