package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string

	// Storage
	Storage     string // "postgres" or "memory"
	DatabaseURL string

	// Auth
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	JWTSecret       string // HMAC secret for dev/test tokens

	// Code generation
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	CodegenProvider  string
	CodegenModel     string
	CodegenMaxTokens int

	// Rate limiting (disabled when RedisAddr is empty)
	RedisAddr          string
	RedisPassword      string
	RevisionRateLimit  int
	RevisionRateWindow time.Duration

	// Streaming revisions
	SSEKeepAlive time.Duration

	// Payments
	PaymentWebhookSecret string

	// Policy override (embedded policy is used when empty)
	PolicyFile string

	// Logging
	LogDir      string
	LogMaxFiles int

	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix: getTablePrefix(env),

		Storage:     getEnv("STORAGE", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		JWTSecret:       getEnv("JWT_SECRET", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		CodegenProvider:  getEnv("CODEGEN_PROVIDER", "anthropic"),
		CodegenModel:     getEnv("CODEGEN_MODEL", "claude-haiku-4-5-20251001"),
		CodegenMaxTokens: getEnvInt("CODEGEN_MAX_TOKENS", 16000),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RevisionRateLimit:  getEnvInt("REVISION_RATE_LIMIT", 10),
		RevisionRateWindow: getEnvDuration("REVISION_RATE_WINDOW", time.Minute),

		SSEKeepAlive: getEnvDuration("SSE_KEEPALIVE", 10*time.Second),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		PolicyFile: getEnv("POLICY_FILE", ""),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		// Debug defaults to true outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// IsDev reports whether dev-only conveniences (HMAC tokens, lorem generator) may be enabled
func (c *Config) IsDev() bool {
	return c.Environment == "dev" || c.Environment == "test"
}

func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
