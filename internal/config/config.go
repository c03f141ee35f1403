package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
	UsersAPI  UsersAPIConfig
	Web       WebConfig
}

// AppConfig holds configuration for the HTTP servers
type AppConfig struct {
	Environment            string `mapstructure:"APP_ENV"`
	APIPort                string `mapstructure:"API_PORT"`
	WebPort                string `mapstructure:"WEB_PORT"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// DatabaseConfig holds configuration for the users backend database
type DatabaseConfig struct {
	Driver          string `mapstructure:"DB_DRIVER"` // postgres or sqlite
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	SQLitePath      string `mapstructure:"DB_SQLITE_PATH"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME_SECONDS"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME_SECONDS"`
	Seed            bool   `mapstructure:"DB_SEED"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Host        string `mapstructure:"REDIS_HOST"`
	Port        string `mapstructure:"REDIS_PORT"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
	CacheTTL    int    `mapstructure:"REDIS_CACHE_TTL_SECONDS"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// RateLimitConfig holds configuration for the token bucket rate limiter
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST"`
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
}

// UsersAPIConfig holds configuration for the remote users REST API
type UsersAPIConfig struct {
	BaseURL        string `mapstructure:"USERS_API_BASE_URL"`
	TimeoutSeconds int    `mapstructure:"USERS_API_TIMEOUT_SECONDS"` // 0 disables the timeout
	UserAgent      string `mapstructure:"USERS_API_USER_AGENT"`      // defaults to SERVICE_NAME/SERVICE_VERSION
}

// WebConfig holds configuration for the browser view
type WebConfig struct {
	SessionCookie   string `mapstructure:"WEB_SESSION_COOKIE"`
	StateTTLSeconds int    `mapstructure:"WEB_STATE_TTL_SECONDS"`
	SecureCookies   bool   `mapstructure:"WEB_SECURE_COOKIES"`
}

// LoadConfig reads configuration from app.env in path, overridden by environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv() // Environment wins over app.env and defaults
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.App.Environment = v.GetString("APP_ENV")
	config.App.APIPort = v.GetString("API_PORT")
	config.App.WebPort = v.GetString("WEB_PORT")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.SQLitePath = v.GetString("DB_SQLITE_PATH")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME_SECONDS")
	config.DB.Seed = v.GetBool("DB_SEED")

	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTL = v.GetInt("REDIS_CACHE_TTL_SECONDS")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")
	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")

	config.UsersAPI.BaseURL = strings.TrimRight(v.GetString("USERS_API_BASE_URL"), "/")
	config.UsersAPI.TimeoutSeconds = v.GetInt("USERS_API_TIMEOUT_SECONDS")
	config.UsersAPI.UserAgent = v.GetString("USERS_API_USER_AGENT")
	if config.UsersAPI.UserAgent == "" {
		config.UsersAPI.UserAgent = config.Logger.ServiceName + "/" + config.Logger.ServiceVersion
	}

	config.Web.SessionCookie = v.GetString("WEB_SESSION_COOKIE")
	config.Web.StateTTLSeconds = v.GetInt("WEB_STATE_TTL_SECONDS")
	config.Web.SecureCookies = v.GetBool("WEB_SECURE_COOKIES")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("API_PORT", "8081")
	v.SetDefault("WEB_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "user_table")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "user_table.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)
	v.SetDefault("DB_SEED", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_CACHE_TTL_SECONDS", 300)

	// Logger defaults
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-table")
	v.SetDefault("SERVICE_VERSION", "1.0.0")

	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_ENABLED", true)

	v.SetDefault("USERS_API_BASE_URL", "https://dummyjson.com/users")
	v.SetDefault("USERS_API_TIMEOUT_SECONDS", 0)

	v.SetDefault("WEB_SESSION_COOKIE", "usertable_session")
	v.SetDefault("WEB_STATE_TTL_SECONDS", 3600)
	v.SetDefault("WEB_SECURE_COOKIES", false)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	var problems []string

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}
	if c.DB.Driver == "sqlite" && c.DB.SQLitePath == "" {
		problems = append(problems, "DB_SQLITE_PATH is required for the sqlite driver")
	}
	if c.App.APIPort == "" || c.App.WebPort == "" {
		problems = append(problems, "API_PORT and WEB_PORT are required")
	}
	if c.App.ShutdownTimeoutSeconds <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	if c.Redis.CacheTTL < 0 {
		problems = append(problems, "REDIS_CACHE_TTL_SECONDS must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstCapacity <= 0) {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if c.UsersAPI.TimeoutSeconds < 0 {
		problems = append(problems, "USERS_API_TIMEOUT_SECONDS must not be negative")
	}
	if u, err := url.Parse(c.UsersAPI.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("USERS_API_BASE_URL must be an absolute http(s) URL, got %q", c.UsersAPI.BaseURL))
	}
	if c.Web.SessionCookie == "" {
		problems = append(problems, "WEB_SESSION_COOKIE is required")
	}
	if c.Web.StateTTLSeconds <= 0 {
		problems = append(problems, "WEB_STATE_TTL_SECONDS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DSN returns the PostgreSQL Data Source Name
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Addr returns the Redis host:port address
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}
