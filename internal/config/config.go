package config

import (
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
	TemplateDir  string `mapstructure:"template_dir"`
	StaticDir    string `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type SessionConfig struct {
	Store           string        `mapstructure:"store"`
	Duration        time.Duration `mapstructure:"duration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminConfig names an account created at startup when none exist.
type AdminConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Load reads configuration from defaults, an optional file at path, a .env
// file in the working directory and the environment, in increasing order of
// precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("FINANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional unprefixed variables.
	for key, envs := range map[string][]string{
		"server.port":    {"FINANCE_SERVER_PORT", "PORT"},
		"database.url":   {"FINANCE_DATABASE_URL", "DATABASE_URL", "DB_PATH"},
		"admin.user":     {"FINANCE_ADMIN_USER", "ADMIN_USER"},
		"admin.password": {"FINANCE_ADMIN_PASSWORD", "ADMIN_PASSWORD"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secure_cookie", false)
	v.SetDefault("server.template_dir", "web/templates")
	v.SetDefault("server.static_dir", "web/static")
	v.SetDefault("database.url", "sqlite://finance_tracker.db")
	v.SetDefault("session.store", "sql")
	v.SetDefault("session.duration", 30*24*time.Hour)
	v.SetDefault("session.cleanup_interval", time.Hour)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("admin.user", "")
	v.SetDefault("admin.password", "")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, _, err := storage.ParseDSN(c.Database.URL); err != nil {
		return fmt.Errorf("database.url: %w", err)
	}
	switch c.Session.Store {
	case "sql":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store %q must be sql or redis", c.Session.Store)
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("session.duration must be positive")
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session.cleanup_interval must be positive")
	}
	if (c.Admin.User == "") != (c.Admin.Password == "") {
		return fmt.Errorf("admin.user and admin.password must be set together")
	}
	return nil
}
