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

// Storage drivers understood by StorageConfig.Driver.
const (
	StorageDriverLocal    = "local"
	StorageDriverSupabase = "supabase"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Storage   StorageConfig
	Uploads   UploadsConfig
	Expiry    ExpiryConfig
	Sweep     SweepConfig
	Portal    PortalConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig controls encoder, level and the optional rotating file sink.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// StorageConfig selects the object store backing uploaded documents.
type StorageConfig struct {
	Driver          string
	LocalDir        string
	PublicBaseURL   string
	AutoCreate      bool
	SupabaseURL     string
	SupabaseKey     string
	RequestTimeout  time.Duration
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// UploadsConfig holds the validation limits shared by every upload target.
type UploadsConfig struct {
	MaxFileSizeBytes  int64
	AllowedMIMEs      []string
	MaxImageDimension int
}

// ExpiryConfig tunes the certificate expiry views.
type ExpiryConfig struct {
	CacheTTL time.Duration
}

// SweepConfig controls the expiry notification sweep worker.
type SweepConfig struct {
	Enabled           bool
	Interval          time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// PortalConfig governs the token gated upload portals.
type PortalConfig struct {
	TokenTTL time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_FILE_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_FILE_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_FILE_MAX_AGE_DAYS"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Storage = StorageConfig{
		Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
		PublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		AutoCreate:      v.GetBool("STORAGE_AUTO_CREATE_BUCKETS"),
		SupabaseURL:     strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseKey:     v.GetString("SUPABASE_SERVICE_KEY"),
		RequestTimeout:  parseDuration(v.GetString("STORAGE_REQUEST_TIMEOUT"), 30*time.Second),
		SignedURLSecret: v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes:  maxUpload,
		AllowedMIMEs:      splitAndTrim(v.GetString("UPLOAD_ALLOWED_MIME_TYPES")),
		MaxImageDimension: v.GetInt("UPLOAD_MAX_IMAGE_DIMENSION"),
	}

	cfg.Expiry = ExpiryConfig{
		CacheTTL: parseDuration(v.GetString("EXPIRY_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Sweep = SweepConfig{
		Enabled:           v.GetBool("ENABLE_SWEEP_SCHEDULER"),
		Interval:          parseDuration(v.GetString("SWEEP_INTERVAL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("SWEEP_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("SWEEP_WORKER_RETRIES"),
	}

	cfg.Portal = PortalConfig{
		TokenTTL: parseDuration(v.GetString("PORTAL_TOKEN_TTL"), 30*24*time.Hour),
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
	v.SetDefault("DB_NAME", "fleet_ops")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_FILE_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_FILE_MAX_BACKUPS", 5)
	v.SetDefault("LOG_FILE_MAX_AGE_DAYS", 28)

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./storage")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/files")
	v.SetDefault("STORAGE_AUTO_CREATE_BUCKETS", false)
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_SERVICE_KEY", "")
	v.SetDefault("STORAGE_REQUEST_TIMEOUT", "30s")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/gif,image/webp,application/pdf")
	v.SetDefault("UPLOAD_MAX_IMAGE_DIMENSION", 0)

	v.SetDefault("EXPIRY_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_SWEEP_SCHEDULER", false)
	v.SetDefault("SWEEP_INTERVAL", "24h")
	v.SetDefault("SWEEP_WORKER_CONCURRENCY", 1)
	v.SetDefault("SWEEP_WORKER_RETRIES", 3)

	v.SetDefault("PORTAL_TOKEN_TTL", "720h")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
