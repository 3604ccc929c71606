package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	Environment string `mapstructure:"environment"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// RedisConfig holds the distributed cache configuration. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds, 0 disables it for long streams
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// CloudflareConfig holds the CDN purge configuration. Purging is disabled without a zone.
type CloudflareConfig struct {
	APIToken string `mapstructure:"api_token"`
	ZoneID   string `mapstructure:"zone_id"`
}

// MediaConfig holds media retrieval, compression and sync settings
type MediaConfig struct {
	// StreamThreshold is the size above which non time-based content is streamed instead of buffered
	StreamThreshold int64 `mapstructure:"stream_threshold"`
	// ViewCacheMaxAge is the Cache-Control max-age for media viewed inline
	ViewCacheMaxAge time.Duration `mapstructure:"view_cache_max_age"`
	// DefaultCacheMaxAge is the Cache-Control max-age for everything else
	DefaultCacheMaxAge time.Duration `mapstructure:"default_cache_max_age"`
	// ConfigCacheTTL bounds how long a resolved storage config is reused
	ConfigCacheTTL time.Duration `mapstructure:"config_cache_ttl"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path"`
	FFprobePath    string        `mapstructure:"ffprobe_path"`
	// MaxCompressInput is the largest video accepted by the compression endpoint
	MaxCompressInput int64 `mapstructure:"max_compress_input"`
	// SyncConcurrency is the number of parallel metadata fetches during reconciliation
	SyncConcurrency int `mapstructure:"sync_concurrency"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Media      MediaConfig      `mapstructure:"media"`
}

// UploaderConfig holds configuration for the media-uploader CLI
type UploaderConfig struct {
	BaseConfig `mapstructure:",squash"`
	// APIURL is the base URL of the media API
	APIURL string `mapstructure:"api_url"`
	// UserID is sent as X-User-ID and owns the uploaded files
	UserID string `mapstructure:"user_id"`
	// Ceiling is the hard transport limit for one upload
	Ceiling int64 `mapstructure:"ceiling"`
	// CompressionTarget is the size a compressed file must reach to be uploaded
	CompressionTarget int64         `mapstructure:"compression_target"`
	MaxImageDimension int           `mapstructure:"max_image_dimension"`
	Concurrency       int           `mapstructure:"concurrency"`
	SyncAfterUpload   bool          `mapstructure:"sync_after_upload"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.db", 0)
	v.SetDefault("media.stream_threshold", 10*1024*1024)
	v.SetDefault("media.view_cache_max_age", "24h")
	v.SetDefault("media.default_cache_max_age", "1h")
	v.SetDefault("media.config_cache_ttl", "5m")
	v.SetDefault("media.max_compress_input", 500*1024*1024)
	v.SetDefault("media.sync_concurrency", 8)

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadUploaderConfig loads configuration for the media-uploader CLI
func LoadUploaderConfig(configFile string, envPath string) (*UploaderConfig, error) {
	v := configureViper("media-uploader", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("ceiling", 4718592) // 4.5MB
	v.SetDefault("compression_target", 4*1024*1024)
	v.SetDefault("max_image_dimension", 1920)
	v.SetDefault("concurrency", 4)
	v.SetDefault("sync_after_upload", true)
	v.SetDefault("timeout", "10m")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var config UploaderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.CompressionTarget > config.Ceiling {
		return nil, fmt.Errorf("compression_target (%d) must not exceed ceiling (%d)", config.CompressionTarget, config.Ceiling)
	}

	return &config, nil
}

// readInConfig reads the config file, tolerating its absence so env vars alone can configure a service
func readInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FF_MEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"environment",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Cloudflare
		"cloudflare.api_token",
		"cloudflare.zone_id",
		// Media
		"media.stream_threshold",
		"media.view_cache_max_age",
		"media.default_cache_max_age",
		"media.config_cache_ttl",
		"media.ffmpeg_path",
		"media.ffprobe_path",
		"media.max_compress_input",
		"media.sync_concurrency",
		// Uploader
		"api_url",
		"user_id",
		"ceiling",
		"compression_target",
		"max_image_dimension",
		"concurrency",
		"sync_after_upload",
		"timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
