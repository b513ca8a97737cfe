package app

import (
	"fmt"
	"log/slog"

	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/jwtx"
)

const (
	singleKeyID    = "k1"
	ephemeralKeyID = "dev"
)

// InitAuthKeys builds the HS256 key set.
//
// Sources, in order:
//   - AUTH_JWT_KEYS: "kid:secret,..." generations. The last entry signs, all
//     verify, so a new generation can be rolled out ahead of retiring the old.
//   - AUTH_JWT_SECRET: a single generation.
//   - neither: outside prod a random secret is generated. Every token is
//     invalidated when the process restarts.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeySet, error) {
	switch {
	case cfg.JWTKeys != "":
		keys, err := jwtx.ParseKeySpec(cfg.JWTKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to parse AUTH_JWT_KEYS: %w", err)
		}
		kid, _, _ := keys.Active()
		logger.Info("signing keys loaded", "kids", keys.KIDs(), "active", kid)
		return keys, nil

	case cfg.JWTSecret != "":
		keys := jwtx.NewKeySet()
		if err := keys.Add(singleKeyID, []byte(cfg.JWTSecret)); err != nil {
			return nil, fmt.Errorf("invalid AUTH_JWT_SECRET: %w", err)
		}
		logger.Info("signing key loaded", "active", singleKeyID)
		return keys, nil
	}

	if cfg.Env == "prod" {
		return nil, jwtx.ErrNoKey
	}

	secret, err := cryptox.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	keys := jwtx.NewKeySet()
	if err := keys.Add(ephemeralKeyID, []byte(secret)); err != nil {
		return nil, err
	}

	logger.Warn("no AUTH_JWT_SECRET configured, generated an ephemeral signing key; tokens will not survive a restart")
	return keys, nil
}
