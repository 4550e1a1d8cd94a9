// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"purchaseflow/internal/rules"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Port       string   `env:"PORT" envDefault:"8080"`
	GinMode    string   `env:"GIN_MODE" envDefault:"debug"`
	JWTSecret  string   `env:"JWT_SECRET"`
	CORSOrigin []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://127.0.0.1:5173" envSeparator:","`

	DB        Database     `envPrefix:"DB_"`
	Redis     Redis        `envPrefix:"REDIS_"`
	Workflow  Workflow     `envPrefix:"CAMUNDA_"`
	Mail      Mail         `envPrefix:"MAIL_"`
	Outbox    Outbox       `envPrefix:"OUTBOX_"`
	Rules     rules.Limits `envPrefix:"RULES_"`
	Approvers rules.Contacts

	ReminderCron string `env:"REMINDER_CRON" envDefault:"0 9 * * *"`
	RulesFile    string `env:"RULES_FILE"`
	// LenientEnums maps unknown category/priority values to OTHER/NORMAL
	// with a warning instead of rejecting the request.
	LenientEnums bool `env:"LENIENT_ENUMS" envDefault:"false"`
}

type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"postgres"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN renders the postgres connection URL.
func (d Database) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// Redis is optional; an empty Addr keeps per-request locking in process.
type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

// Workflow points at the orchestration runtime REST API. An empty URL runs
// without one.
type Workflow struct {
	URL        string        `env:"URL"`
	ProcessKey string        `env:"PROCESS_KEY" envDefault:"purchase-approval-process"`
	Username   string        `env:"USERNAME"`
	Password   string        `env:"PASSWORD"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Mail struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"purchasing@example.com"`
}

type Outbox struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"20"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"6"`
	BaseBackoff  time.Duration `env:"BASE_BACKOFF" envDefault:"30s"`
	MaxBackoff   time.Duration `env:"MAX_BACKOFF" envDefault:"1h"`
}

// Load reads configs/.env when present, then the process environment, then
// the optional rules file.
func Load() (Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}
	return Parse()
}

// Parse builds the configuration from the current environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.RulesFile != "" {
		limits, err := rules.LoadLimitsFile(cfg.RulesFile, cfg.Rules)
		if err != nil {
			return Config{}, err
		}
		cfg.Rules = limits
	}
	if err := cfg.Rules.Check(); err != nil {
		return Config{}, fmt.Errorf("routing limits: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key"
	}
	return cfg, nil
}
