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
	AppName     string
	AppEnv      string
	AppURL      string
	FrontendURL string
	Port        string

	// Database (driver switch via ENV: sqlite, pgx or mongo; default: sqlite)
	DBDriver      string
	DBConnection  string
	MongoDatabase string

	// Security
	JWTSecret              string
	SessionExpiry          time.Duration
	VerificationCodeExpiry time.Duration
	PasswordResetExpiry    time.Duration
	CORSAllowedOrigins     []string
	MaxUploadSize          int64

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Cache (optional, empty REDIS_URL disables the recipe cache)
	RedisURL       string
	RecipeCacheTTL time.Duration

	// Storage ("local" disk under UploadDir, or "s3" for any S3-compatible service)
	StorageDriver   string
	UploadDir       string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry for recipe image URLs - default: 7 days
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "RecipeHub"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development', 'test' or 'production'
		AppURL:      envRequired("APP_URL"), // Required: public API base URL, used for OAuth redirects and image links
		FrontendURL: envString("FRONTEND_URL", "http://localhost:3000"),
		Port:        envString("PORT", "8090"),

		// Database
		DBDriver:      envString("DB_DRIVER", "sqlite"),
		DBConnection:  envString("DB_CONNECTION", "./data/recipehub.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		MongoDatabase: envString("MONGO_DATABASE", "recipehub"),

		// Security
		JWTSecret:              envRequired("JWT_SECRET"),
		SessionExpiry:          envDuration("SESSION_EXPIRY", 1*time.Hour),
		VerificationCodeExpiry: envDuration("VERIFICATION_CODE_EXPIRY", 10*time.Minute),
		PasswordResetExpiry:    envDuration("PASSWORD_RESET_EXPIRY", 15*time.Minute),
		CORSAllowedOrigins:     envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxUploadSize:          envInt64("MAX_UPLOAD_SIZE", 5<<20), // 5MB

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Cache
		RedisURL:       envString("REDIS_URL", ""),
		RecipeCacheTTL: envDuration("RECIPE_CACHE_TTL", 10*time.Minute),

		// Storage
		StorageDriver:   envString("STORAGE_DRIVER", "local"),
		UploadDir:       envString("UPLOAD_DIR", "./data/images"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour),
	}

	// S3 credentials are only needed when images go to object storage
	if cfg.StorageDriver == "s3" {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
		cfg.S3AccessKey = envRequired("S3_ACCESS_KEY")
		cfg.S3SecretKey = envRequired("S3_SECRET_KEY")
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows some services (like email) to use fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
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

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
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

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
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

// DebugLogging reports whether verbose logs are wanted. LOG_DEBUG overrides the env default.
func (c *Config) DebugLogging() bool {
	return envBool("LOG_DEBUG", c.IsDevelopment())
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:     c.AppName,
		AppEnv:      c.AppEnv,
		AppURL:      c.AppURL,
		FrontendURL: c.FrontendURL,
		Port:        c.Port,

		DBDriver:      c.DBDriver,
		MongoDatabase: c.MongoDatabase,

		SessionExpiry:          c.SessionExpiry,
		VerificationCodeExpiry: c.VerificationCodeExpiry,
		PasswordResetExpiry:    c.PasswordResetExpiry,
		CORSAllowedOrigins:     c.CORSAllowedOrigins,

		EmailFrom:      c.EmailFrom,
		GoogleClientID: c.GoogleClientID,

		StorageDriver: c.StorageDriver,
		S3Endpoint:    c.S3Endpoint,
		S3Bucket:      c.S3Bucket,
	}
}
