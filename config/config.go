package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds file and environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via the config file or the environment.
type AppConfig struct {
	App        AppSection        `mapstructure:"app"`
	Database   DatabaseSection   `mapstructure:"database"`
	Redis      RedisSection      `mapstructure:"redis"`
	Log        LogSection        `mapstructure:"log"`
	Admin      AdminSection      `mapstructure:"admin"`
	Pagination PaginationSection `mapstructure:"pagination"`
}

// AppSection configures the HTTP surface and token issuance.
type AppSection struct {
	Port               string        `mapstructure:"port"`
	GinMode            string        `mapstructure:"gin_mode"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	TokenCacheTTL      time.Duration `mapstructure:"token_cache_ttl"`
	// OpenStaffSignup lets self-registration set is_staff/is_superuser.
	OpenStaffSignup bool `mapstructure:"open_staff_signup"`
}

type DatabaseSection struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisSection configures the shared cache. An empty host selects the in-process cache.
type RedisSection struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type LogSection struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	GinPath    string `mapstructure:"gin_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AdminSection describes the superuser created at boot when missing.
type AdminSection struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// PaginationSection holds the per-resource page sizes.
type PaginationSection struct {
	ArticlesDefaultLimit int `mapstructure:"articles_default_limit"`
	ArticlesMaxLimit     int `mapstructure:"articles_max_limit"`
	CommentsDefaultLimit int `mapstructure:"comments_default_limit"`
	CommentsMaxLimit     int `mapstructure:"comments_max_limit"`
	UsersPageSize        int `mapstructure:"users_page_size"`
	UsersMaxPageSize     int `mapstructure:"users_max_page_size"`
}

const envPrefix = "ARTICLES"

// legacyEnv keeps the flat variable names deployments already export.
var legacyEnv = map[string]string{
	"app.jwt_secret": "JWT_SECRET",
	"app.port":       "APP_PORT",
	"database.dsn":   "DATABASE_URI",
	"log.level":      "LOG_LEVEL",
}

// Load reads configuration with the precedence: config file -> defaults -> environment overrides.
// A missing file is not an error; an unreadable or invalid one is.
func Load(path string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	// Env values arrive as one comma separated string, possibly with padding.
	var origins []string
	for _, o := range cfg.App.AllowedOrigins {
		origins = append(origins, splitList(o)...)
	}
	cfg.App.AllowedOrigins = origins

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.gin_mode", "release")
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.access_token_ttl", 24*time.Hour)
	v.SetDefault("app.token_cache_ttl", 10*time.Minute)
	v.SetDefault("app.open_staff_signup", false)
	v.SetDefault("app.jwt_secret", "")

	// Keys without a meaningful default are still registered so env overrides reach Unmarshal.
	for _, key := range []string{
		"database.dsn", "database.user", "database.password",
		"redis.host", "redis.password",
		"log.path", "log.gin_path",
		"admin.username", "admin.email", "admin.password",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.name", "articles")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("pagination.articles_default_limit", 5)
	v.SetDefault("pagination.articles_max_limit", 6)
	v.SetDefault("pagination.comments_default_limit", 10)
	v.SetDefault("pagination.comments_max_limit", 20)
	v.SetDefault("pagination.users_page_size", 10)
	v.SetDefault("pagination.users_max_page_size", 12)
}

// Validate rejects configurations the server cannot run with.
func (c AppConfig) Validate() error {
	if c.App.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in the config file or environment")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	p := c.Pagination
	if p.ArticlesDefaultLimit <= 0 || p.ArticlesMaxLimit < p.ArticlesDefaultLimit {
		return fmt.Errorf("invalid article pagination %d/%d", p.ArticlesDefaultLimit, p.ArticlesMaxLimit)
	}
	if p.CommentsDefaultLimit <= 0 || p.CommentsMaxLimit < p.CommentsDefaultLimit {
		return fmt.Errorf("invalid comment pagination %d/%d", p.CommentsDefaultLimit, p.CommentsMaxLimit)
	}
	if p.UsersPageSize <= 0 || p.UsersMaxPageSize < p.UsersPageSize {
		return fmt.Errorf("invalid user pagination %d/%d", p.UsersPageSize, p.UsersMaxPageSize)
	}
	return nil
}

// RedisEnabled reports whether a shared Redis cache is configured.
func (c AppConfig) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Host) != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
