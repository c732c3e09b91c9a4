package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	AppTagline   string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret          string
	JWTExpiry          time.Duration
	CORSAllowedOrigins []string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	// All optional: without credentials the storage capability reports unavailable.
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration

	// Capabilities (all optional)
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	RunwayAPIKey      string
	RunwayBaseURL     string

	// Capability behaviour
	CapabilityProbe       bool          // Run network readiness probes at startup
	CapabilityMaxAttempts int           // Attempts for retryable adapters
	CapabilityBaseDelay   time.Duration // First backoff delay, doubled per attempt
	CapabilityMaxDelay    time.Duration // Backoff cap
	CapabilityJitter      time.Duration // Random extra delay per attempt
	CapabilityTimeout     time.Duration // Per-attempt timeout
	VideoTimeout          time.Duration // Per-attempt timeout for video generation
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Storyloom"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // Required: base URL for email links
		Port:         envString("PORT", "8090"),
		AppTagline:   envString("APP_TAGLINE", "Stories from every corner of the world"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/storyloom.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:          envRequired("JWT_SECRET"),
		JWTExpiry:          envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", nil),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:               envString("S3_REGION", ""),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),

		// Capabilities
		OpenAIAPIKey:      envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     envString("OPENAI_BASE_URL", ""),
		OpenAIChatModel:   envString("OPENAI_CHAT_MODEL", "gpt-4o"),
		ElevenLabsAPIKey:  envString("ELEVENLABS_API_KEY", ""),
		ElevenLabsBaseURL: envString("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
		RunwayAPIKey:      envString("RUNWAY_API_KEY", ""),
		RunwayBaseURL:     envString("RUNWAY_BASE_URL", "https://api.runwayml.com/v1"),

		CapabilityProbe:       envBool("CAPABILITY_PROBE", false),
		CapabilityMaxAttempts: envInt("CAPABILITY_MAX_ATTEMPTS", 3),
		CapabilityBaseDelay:   envDuration("CAPABILITY_BASE_DELAY", 2*time.Second),
		CapabilityMaxDelay:    envDuration("CAPABILITY_MAX_DELAY", 20*time.Second),
		CapabilityJitter:      envDuration("CAPABILITY_JITTER", 300*time.Millisecond),
		CapabilityTimeout:     envDuration("CAPABILITY_TIMEOUT", 60*time.Second),
		VideoTimeout:          envDuration("VIDEO_TIMEOUT", 120*time.Second),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to use log mode for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma-separated list, dropping empty entries
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasS3 reports whether object storage credentials are configured.
func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in ctx, templates and client-facing contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		AppTagline:   c.AppTagline,
		SupportEmail: c.SupportEmail,

		EmailFrom: c.EmailFrom,

		S3Endpoint: c.S3Endpoint, // Needed for CSP policies
	}
}
