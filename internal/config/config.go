package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name           string        `yaml:"name" envconfig:"APP_NAME"`
	Port           string        `yaml:"port" envconfig:"APP_PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"APP_REQUEST_TIMEOUT"`
}

type PostgresConfig struct {
	URL             string        `yaml:"url" envconfig:"DATABASE_URL"`
	Host            string        `yaml:"host" envconfig:"DB_HOST"`
	Port            string        `yaml:"port" envconfig:"DB_PORT"`
	User            string        `yaml:"user" envconfig:"DB_USER"`
	Password        string        `yaml:"password" envconfig:"DB_PASSWORD"`
	DBName          string        `yaml:"dbname" envconfig:"DB_NAME"`
	SSLMode         string        `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConns        int32         `yaml:"max_conns" envconfig:"DB_MAX_CONNS"`
	MinConns        int32         `yaml:"min_conns" envconfig:"DB_MIN_CONNS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" envconfig:"DB_MAX_CONN_LIFETIME"`
	MigrationsPath  string        `yaml:"migrations_path" envconfig:"DB_MIGRATIONS_PATH"`
	Schema          string        `yaml:"schema" envconfig:"DB_SCHEMA"`
}

// ConnString prefers DATABASE_URL and falls back to the keyword/value form.
func (c PostgresConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	TokenTTL         time.Duration `yaml:"token_ttl" envconfig:"JWT_TTL"`
	BcryptCost       int           `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST"`
	AllowAdminSignup bool          `yaml:"allow_admin_signup" envconfig:"AUTH_ALLOW_ADMIN_SIGNUP"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"CORS_ALLOWED_ORIGINS"`
}

type ReportConfig struct {
	LowStockThreshold int `yaml:"low_stock_threshold" envconfig:"REPORT_LOW_STOCK_THRESHOLD"`
	TopProducts       int `yaml:"top_products" envconfig:"REPORT_TOP_PRODUCTS"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Report   ReportConfig   `yaml:"report"`
}

func defaults() Config {
	return Config{
		App: AppConfig{
			Name:           "freshcart",
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			DBName:          "freshcart",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MigrationsPath:  "migrations",
		},
		Auth: AuthConfig{
			TokenTTL:         7 * 24 * time.Hour,
			BcryptCost:       12,
			AllowAdminSignup: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Report: ReportConfig{
			LowStockThreshold: 10,
			TopProducts:       5,
		},
	}
}

// NewConfig loads configuration using the file named by CONFIG_FILE, if any.
func NewConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load builds the configuration in three layers: built-in defaults, the optional
// YAML file at path, then environment variables (a .env file is read first).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return errors.New("config: APP_PORT must not be empty")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("config: DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	return nil
}
