package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig selects the SQL driver and connection.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "sqlite3" or "postgres"
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. When unset, Load generates a random one and sets
	// SecretGenerated; such tokens do not survive a restart.
	JWTSecret       string        `yaml:"jwt_secret"`
	SecretGenerated bool          `yaml:"-"`
	Issuer          string        `yaml:"issuer"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CookieName      string        `yaml:"cookie_name"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
}

// RedisConfig backs the session revocation store. When disabled an in-process store is used.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root of the configuration tree.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LogConfig      `yaml:"logging"`
}

// Defaults returns a configuration that runs locally with no external services.
func Defaults() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite3",
			DSN:          "moneymap.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			Issuer:     "moneymap",
			SessionTTL: 24 * time.Hour,
			CookieName: "session",
			BcryptCost: 12,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an optional
// .env file and finally the process environment, in that order of precedence.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
		cfg.Auth.SecretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func applyEnvOverrides(cfg *AppConfig) {
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = GetEnvOrDefaultAsDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = GetEnvOrDefaultAsDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = GetEnvOrDefaultAsDuration("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.Driver = GetEnvOrDefaultAsString("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = GetEnvOrDefaultAsString("DB_DSN", cfg.Database.DSN)
	cfg.Database.MaxOpenConns = GetEnvOrDefaultAsInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = GetEnvOrDefaultAsInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Auth.JWTSecret = GetEnvOrDefaultAsString("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = GetEnvOrDefaultAsString("JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.SessionTTL = GetEnvOrDefaultAsDuration("SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.CookieName = GetEnvOrDefaultAsString("SESSION_COOKIE_NAME", cfg.Auth.CookieName)
	cfg.Auth.CookieSecure = GetEnvOrDefaultAsBool("SESSION_COOKIE_SECURE", cfg.Auth.CookieSecure)
	cfg.Auth.BcryptCost = GetEnvOrDefaultAsInt("BCRYPT_COST", cfg.Auth.BcryptCost)

	cfg.Redis.Enabled = GetEnvOrDefaultAsBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.Logging.Level = GetEnvOrDefaultAsString("LOGGING_LEVEL", cfg.Logging.Level)
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth session ttl must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func GetEnvOrDefaultAsString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvOrDefaultAsBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvOrDefaultAsDuration accepts Go duration strings ("90s") or a bare number of seconds.
func GetEnvOrDefaultAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
