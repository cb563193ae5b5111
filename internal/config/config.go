package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a detailed summary for logging (no secrets)
func (c S3Config) DiagnosticsSummary() string {
	accessKeyStatus := "not set"
	if strings.TrimSpace(c.AccessKeyID) != "" {
		accessKeyStatus = "set"
	}
	secretKeyStatus := "not set"
	if strings.TrimSpace(c.SecretAccessKey) != "" {
		secretKeyStatus = "set"
	}

	return fmt.Sprintf("endpoint=%s region=%s bucket=%s access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		accessKeyStatus,
		secretKeyStatus,
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

type BlobConfig struct {
	Mode     string // local|s3|auto
	LocalDir string
	S3       S3Config
}

// Config содержит конфигурацию приложения
type Config struct {
	Env      string // local | staging | prod
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Blob archival (finalized day records)
	Blob BlobConfig

	// Authentication & Authorization
	AuthMode      string // none | dev
	AuthEnabled   bool
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// AI
	AIMode            string // mock | openai
	AIMaxOutputTokens int
	AITemperature     float64
	AITimeoutSeconds  int
	OpenAIAPIKey      string
	OpenAIModel       string

	// Nutrition validation
	StrictTotals bool

	// Migrations
	RunMigrationsOnStartup bool
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// APP_ENV (fallback to ENV for backward compat, default: local)
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	// PORT (default: 8080)
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	// LOG_LEVEL (default: debug)
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	// ---------- Migrations ----------
	runMigrationsOnStartup := parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- CORS ----------
	corsOrigins := parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env)
	corsAllowCreds := os.Getenv("CORS_ALLOW_CREDENTIALS") == "1"

	// ---------- Rate Limiting ----------
	rateLimitRPS := envInt("RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	blobMode := parseBlobMode("BLOB_MODE", BlobModeLocal)

	blobLocalDir := strings.TrimSpace(os.Getenv("BLOB_LOCAL_DIR"))
	if blobLocalDir == "" {
		blobLocalDir = "data/blob"
	}

	s3Cfg := S3Config{
		Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
		Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
	}

	blobCfg := BlobConfig{
		Mode:     blobMode,
		LocalDir: blobLocalDir,
		S3:       s3Cfg,
	}

	// AUTH_MODE (default: none)
	authMode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if authMode == "" {
		// Backward-compat for legacy AUTH_ENABLED
		if authStr := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_ENABLED"))); authStr == "1" || authStr == "true" {
			authMode = "dev"
		} else {
			authMode = "none"
		}
	}
	if authMode != "none" && authMode != "dev" {
		log.Printf("WARNING: unknown AUTH_MODE=%q, fallback to none", authMode)
		authMode = "none"
	}
	authEnabled := authMode != "none"
	authRequired := authMode != "none" && (os.Getenv("AUTH_REQUIRED") == "1" || strings.EqualFold(os.Getenv("AUTH_REQUIRED"), "true"))

	// JWT_SECRET
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	// Warn if using default in non-local environment
	if jwtSecret == "change_me" && env != "local" {
		log.Println("WARNING: JWT_SECRET is set to 'change_me' in non-local environment!")
	}

	// JWT_ISSUER (default: "nutrihub")
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "nutrihub"
	}

	// JWT_TTL_MINUTES (default: 10080 = 7 days)
	jwtTTLMinutes := envInt("JWT_TTL_MINUTES", 10080)

	// ---------- AI ----------
	aiMode := strings.ToLower(strings.TrimSpace(os.Getenv("AI_MODE")))
	if aiMode == "" {
		aiMode = "mock"
	}
	if aiMode != "mock" && aiMode != "openai" {
		log.Printf("WARNING: unknown AI_MODE=%q, fallback to mock", aiMode)
		aiMode = "mock"
	}

	aiMaxOutputTokens := envInt("AI_MAX_OUTPUT_TOKENS", 600)
	if aiMaxOutputTokens <= 0 {
		aiMaxOutputTokens = 600
	}

	aiTemperature := envFloat("AI_TEMPERATURE", 0.3)
	if aiTemperature < 0 {
		aiTemperature = 0
	}
	if aiTemperature > 2 {
		aiTemperature = 2
	}

	aiTimeoutSeconds := envInt("AI_TIMEOUT_SECONDS", 20)
	if aiTimeoutSeconds <= 0 {
		aiTimeoutSeconds = 20
	}

	openAIAPIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	openAIModel := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if openAIModel == "" {
		openAIModel = "gpt-4.1-mini"
	}

	if aiMode == "openai" && openAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required when AI_MODE=openai")
	}

	// STRICT_TOTALS (default: 0, totals mismatch is a warning)
	strictTotals := parseBoolEnv("STRICT_TOTALS")

	return &Config{
		Env:               env,
		Port:              port,
		LogLevel:          logLevel,
		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		CORSAllowedOrigins:   corsOrigins,
		CORSAllowCredentials: corsAllowCreds,

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		Blob: blobCfg,

		AuthMode:      authMode,
		AuthEnabled:   authEnabled,
		AuthRequired:  authRequired,
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		JWTTTLMinutes: jwtTTLMinutes,

		AIMode:            aiMode,
		AIMaxOutputTokens: aiMaxOutputTokens,
		AITemperature:     aiTemperature,
		AITimeoutSeconds:  aiTimeoutSeconds,
		OpenAIAPIKey:      openAIAPIKey,
		OpenAIModel:       openAIModel,

		StrictTotals: strictTotals,

		RunMigrationsOnStartup: runMigrationsOnStartup,
	}
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Printf("WARNING: unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
