package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Env                  string        `env:"ENV" envDefault:"dev"`         // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port                 int           `env:"PORT" envDefault:"8080"`       // HTTP server port
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	StoreDriver   string `env:"VAULT_STORE_DRIVER" envDefault:"sqlite"` // sqlite, mongo
	DatabaseFile  string `env:"VAULT_DATABASE_FILE" envDefault:"vault.db"`
	MongoURI      string `env:"VAULT_MONGO_URI"`
	MongoDatabase string `env:"VAULT_MONGO_DATABASE" envDefault:"teamvault"`

	// SessionSecret signs session tokens. Outside dev it is required; in dev
	// an ephemeral one is generated and sessions die with the process.
	SessionSecret string        `env:"VAULT_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"VAULT_SESSION_TTL" envDefault:"168h"`
	Issuer        string        `env:"VAULT_ISSUER" envDefault:"teamvault"`
	PepperFile    string        `env:"VAULT_PEPPER_FILE" envDefault:"pepper"`
	MasterKeyFile string        `env:"VAULT_MASTER_KEY_FILE" envDefault:"master.key"`

	// BaseURL is where invitation links point.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// Invitation emails go over SMTP when SMTPHost is set and are only
	// logged otherwise.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"TeamVault <no-reply@teamvault.local>"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("VAULT_DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("VAULT_MONGO_URI is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VAULT_STORE_DRIVER %q", c.StoreDriver))
	}

	if c.SessionSecret == "" && !c.IsDev() {
		errs = append(errs, errors.New("VAULT_SESSION_SECRET is required outside dev"))
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("VAULT_SESSION_SECRET must be at least 32 bytes"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool { return c.Env == "dev" }

// SMTPEnabled reports whether invitation emails are actually sent.
func (c Config) SMTPEnabled() bool { return c.SMTPHost != "" }
