package app

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/notify"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "vault.db", cfg.DatabaseFile)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.False(t, cfg.SMTPEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("VAULT_STORE_DRIVER", "Mongo")
	t.Setenv("VAULT_MONGO_URI", "mongodb://db:27017")
	t.Setenv("VAULT_SESSION_SECRET", strings.Repeat("k", 32))
	t.Setenv("VAULT_SESSION_TTL", "12h")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15m")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverMongo, cfg.StoreDriver)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.True(t, cfg.SMTPEnabled())
	require.Equal(t, 587, cfg.SMTPPort)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Env:          "prod",
		Port:         8080,
		StoreDriver:  DriverSQLite,
		DatabaseFile: "vault.db",
		SessionTTL:   time.Hour,

		SessionSecret: strings.Repeat("s", 32),
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }, "unknown VAULT_STORE_DRIVER"},
		{"mongo without uri", func(c *Config) { c.StoreDriver = DriverMongo }, "VAULT_MONGO_URI"},
		{"missing secret in prod", func(c *Config) { c.SessionSecret = "" }, "required outside dev"},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "at least 32 bytes"},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	dev := valid
	dev.Env = "dev"
	dev.SessionSecret = ""
	require.NoError(t, dev.Validate())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("VAULT_STORE_DRIVER", "redis")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("VAULT_STORE_DRIVER", "sqlite")
	t.Setenv("PORT", "not-a-number")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "parse env")
}

func TestNewWiresApplication(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		StoreDriver:          DriverSQLite,
		DatabaseFile:         filepath.Join(dir, "vault.db"),
		SessionSecret:        strings.Repeat("s", 32),
		SessionTTL:           time.Hour,
		Issuer:               "teamvault-test",
		PepperFile:           filepath.Join(dir, "pepper"),
		MasterKeyFile:        filepath.Join(dir, "master.key"),
		BaseURL:              "http://localhost:8080",
	}

	application, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, application.Handler())
	require.IsType(t, notify.LogNotifier{}, application.notifier)
	require.FileExists(t, cfg.PepperFile)
	require.FileExists(t, cfg.MasterKeyFile)

	application.housekeepingService.Start()
	require.NoError(t, application.Shutdown())
}
