package infra

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	DBMaxConns             int
	ServiceRoleKey         string
	JWTSecret              string
	ReplicateAPIToken      string
	ReplicateBaseURL       string
	ReplicateWebhookSecret string
	PublicBaseURL          string
	StoragePath            string
	StorageBaseURL         string
	RedisAddr              string
	RedisChannel           string
	GenerationMaxRetries   int
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	ReplicateTimeout       time.Duration
	RateLimitPerMin        int
	CORSAllowedOrigins     []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Required secrets are not enforced here; callers
// report them through MissingRequired so the API can answer with the list.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   port,
		DatabaseURL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:             getEnvInt("DB_MAX_CONNS", 10),
		ServiceRoleKey:         strings.TrimSpace(os.Getenv("SERVICE_ROLE_KEY")),
		JWTSecret:              strings.TrimSpace(os.Getenv("JWT_SECRET")),
		ReplicateAPIToken:      strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
		ReplicateBaseURL:       getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateWebhookSecret: strings.TrimSpace(os.Getenv("REPLICATE_WEBHOOK_SECRET")),
		PublicBaseURL:          strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		StoragePath:            getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:         strings.TrimRight(getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"), "/"),
		RedisAddr:              strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisChannel:           getEnv("REDIS_CHANNEL", "cover_generation"),
		GenerationMaxRetries:   getEnvInt("GENERATION_MAX_RETRIES", 3),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ReplicateTimeout:       time.Second * time.Duration(getEnvInt("REPLICATE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	if cfg.GenerationMaxRetries < 0 {
		cfg.GenerationMaxRetries = 0
	}
	return cfg, nil
}

// MissingRequired lists the names of required settings that are unset.
// REPLICATE_API_TOKEN counts as present when a stored token is available.
func (c *Config) MissingRequired(storedReplicateToken bool) []string {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.ServiceRoleKey == "" {
		missing = append(missing, "SERVICE_ROLE_KEY")
	}
	if c.ReplicateAPIToken == "" && !storedReplicateToken {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}
	return missing
}

// WebhookURL returns the completion callback Replicate should call for a course.
func (c *Config) WebhookURL(courseID string) string {
	return c.PublicBaseURL + "/v1/webhooks/replicate?courseId=" + url.QueryEscape(courseID)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
