package auth

import (
	"time"

	"github.com/Builder-Lawyers/hosting-backend/pkg/env"
)

// Config selects how bearer tokens are verified: against a JWKS endpoint when JWKSURL is set,
// otherwise with the shared HMAC secret.
type Config struct {
	Secret  string
	JWKSURL string
	Issuer  string
	Leeway  time.Duration
}

func NewConfig() *Config {
	return &Config{
		Secret:  env.GetEnv("JWT_SECRET", ""),
		JWKSURL: env.GetEnv("JWT_JWKS_URL", ""),
		Issuer:  env.GetEnv("JWT_ISSUER", ""),
		Leeway:  env.GetEnvDuration("JWT_LEEWAY", 60*time.Second),
	}
}
