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

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Export    ExportConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig tunes the weekly grid geometry and assembly behaviour.
type TimetableConfig struct {
	GridStartHour       int
	GridEndHour         int
	RowHeightPx         float64
	MinEventHeightPx    float64
	CacheEnabled        bool
	CacheTTL            time.Duration
	ResolverConcurrency int
}

// ExportConfig gates the export endpoints and tunes the archive worker.
type ExportConfig struct {
	Enabled        bool
	ArchiveDir     string
	SignSecret     string
	SignTTL        time.Duration
	ArchiveWorkers int
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		GridStartHour:       v.GetInt("TIMETABLE_GRID_START_HOUR"),
		GridEndHour:         v.GetInt("TIMETABLE_GRID_END_HOUR"),
		RowHeightPx:         v.GetFloat64("TIMETABLE_ROW_HEIGHT_PX"),
		MinEventHeightPx:    v.GetFloat64("TIMETABLE_MIN_EVENT_HEIGHT_PX"),
		CacheEnabled:        v.GetBool("TIMETABLE_CACHE_ENABLED"),
		CacheTTL:            parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 5*time.Minute),
		ResolverConcurrency: v.GetInt("TIMETABLE_RESOLVER_CONCURRENCY"),
	}

	cfg.Export = ExportConfig{
		Enabled:        v.GetBool("ENABLE_EXPORT"),
		ArchiveDir:     v.GetString("EXPORT_ARCHIVE_DIR"),
		SignSecret:     v.GetString("EXPORT_SIGN_SECRET"),
		SignTTL:        parseDuration(v.GetString("EXPORT_SIGN_TTL"), 24*time.Hour),
		ArchiveWorkers: v.GetInt("EXPORT_ARCHIVE_WORKERS"),
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
	v.SetDefault("DB_NAME", "school_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_GRID_START_HOUR", 8)
	v.SetDefault("TIMETABLE_GRID_END_HOUR", 18)
	v.SetDefault("TIMETABLE_ROW_HEIGHT_PX", 80)
	v.SetDefault("TIMETABLE_MIN_EVENT_HEIGHT_PX", 20)
	v.SetDefault("TIMETABLE_CACHE_ENABLED", false)
	v.SetDefault("TIMETABLE_CACHE_TTL", "5m")
	v.SetDefault("TIMETABLE_RESOLVER_CONCURRENCY", 4)

	v.SetDefault("ENABLE_EXPORT", true)
	v.SetDefault("EXPORT_ARCHIVE_DIR", "./exports")
	v.SetDefault("EXPORT_SIGN_SECRET", "")
	v.SetDefault("EXPORT_SIGN_TTL", "24h")
	v.SetDefault("EXPORT_ARCHIVE_WORKERS", 1)
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
