package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App           AppConfig
	Paths         PathsConfig
	Database      DatabaseConfig
	Security      SecurityConfig
	LinkedIn      LinkedInConfig
	Publisher     PublisherConfig
	Notifications NotificationsConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type SecurityConfig struct {
	SecretKey string // token encryption key (AES-256)
}

type LinkedInConfig struct {
	APIBaseURL     string
	PublishTimeout time.Duration
	CommentaryMax  int
}

type PublisherConfig struct {
	CronSecret   string
	CronEnabled  bool
	CronSchedule string
	ClaimWindow  time.Duration
}

type NotificationsConfig struct {
	VapidPublicKey  string
	VapidPrivateKey string
	VapidSubject    string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "app.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "draftcast:"),
	}

	liCfg := LinkedInConfig{
		APIBaseURL:     getEnv("LINKEDIN_API_BASE_URL", "https://api.linkedin.com"),
		PublishTimeout: time.Duration(getEnvInt("LINKEDIN_PUBLISH_TIMEOUT_SECONDS", 30)) * time.Second,
		CommentaryMax:  getEnvInt("LINKEDIN_COMMENTARY_MAX", 2900),
	}

	pubCfg := PublisherConfig{
		CronSecret:   getEnv("PUBLISH_CRON_SECRET", ""),
		CronEnabled:  getEnvBool("PUBLISH_CRON_ENABLED", false),
		CronSchedule: getEnv("PUBLISH_CRON_SCHEDULE", "*/5 * * * *"),
		ClaimWindow:  time.Duration(getEnvInt("PUBLISH_CLAIM_WINDOW_MINUTES", 10)) * time.Minute,
	}

	notifCfg := NotificationsConfig{
		VapidPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VapidPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VapidSubject:    getEnv("VAPID_SUBJECT", "mailto:ops@draftcast.app"),
	}

	cfg := &Config{
		App:           appCfg,
		Paths:         pathsCfg,
		Database:      dbCfg,
		Security:      SecurityConfig{SecretKey: getEnv("APP_SECRET_KEY", "")},
		LinkedIn:      liCfg,
		Publisher:     pubCfg,
		Notifications: notifCfg,
	}

	Global = cfg
	return cfg, nil
}
