package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Analytics     AnalyticsConfig
	Compliance    ComplianceConfig
	Notifications NotificationsConfig
	Reports       ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds verification settings for tokens issued by the external
// identity provider. This service never issues tokens itself.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour for the aggregation endpoints.
type AnalyticsConfig struct {
	Enabled      bool
	CacheTTL     time.Duration
	TrendBuckets int
}

// ComplianceConfig tunes the scanner's alert windows.
type ComplianceConfig struct {
	DueSoonWindow   time.Duration
	UpcomingWindow  time.Duration
	StaleGoalWindow time.Duration
	DedupEnabled    bool
	ScanTimeout     time.Duration
}

// NotificationsConfig bounds notification listing.
type NotificationsConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ReportsConfig configures asynchronous snapshot generation and export.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		Enabled:      v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		TrendBuckets: v.GetInt("ANALYTICS_TREND_BUCKETS"),
	}

	cfg.Compliance = ComplianceConfig{
		DueSoonWindow:   parseDuration(v.GetString("COMPLIANCE_DUE_SOON_WINDOW"), 7*24*time.Hour),
		UpcomingWindow:  parseDuration(v.GetString("COMPLIANCE_UPCOMING_WINDOW"), 30*24*time.Hour),
		StaleGoalWindow: parseDuration(v.GetString("COMPLIANCE_STALE_GOAL_WINDOW"), 30*24*time.Hour),
		DedupEnabled:    v.GetBool("COMPLIANCE_DEDUP"),
		ScanTimeout:     parseDuration(v.GetString("COMPLIANCE_SCAN_TIMEOUT"), 2*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		DefaultPageSize: v.GetInt("NOTIFICATIONS_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("NOTIFICATIONS_MAX_PAGE_SIZE"),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		ResultTTL:         parseDuration(v.GetString("REPORTS_RESULT_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "iep_compliance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ANALYTICS_CACHE", false)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ANALYTICS_TREND_BUCKETS", 6)

	v.SetDefault("COMPLIANCE_DUE_SOON_WINDOW", "168h")
	v.SetDefault("COMPLIANCE_UPCOMING_WINDOW", "720h")
	v.SetDefault("COMPLIANCE_STALE_GOAL_WINDOW", "720h")
	v.SetDefault("COMPLIANCE_DEDUP", false)
	v.SetDefault("COMPLIANCE_SCAN_TIMEOUT", "2m")

	v.SetDefault("NOTIFICATIONS_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("NOTIFICATIONS_MAX_PAGE_SIZE", 100)

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_RESULT_TTL", "24h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
