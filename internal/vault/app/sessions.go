package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/jwtx"
)

// InitSessionKeys builds the HS256 session keys from the configured secret.
//
// Without a secret (only allowed in dev) a random one is generated; every
// session then becomes invalid when the service restarts.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*jwtx.SessionKeys, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		logger.Warn("VAULT_SESSION_SECRET not set, using an ephemeral session secret")
	}

	keys, err := jwtx.NewSessionKeys([]byte(secret), cfg.Issuer, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}

	logger.Info("session keys ready", "issuer", cfg.Issuer, "ttl", keys.TTL())
	return keys, nil
}
