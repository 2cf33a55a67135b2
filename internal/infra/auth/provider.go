package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoVerifier = errors.New("neither JWT_JWKS_URL nor JWT_SECRET is configured")

type Identity struct {
	UserID uuid.UUID
}

type IdentityProvider struct {
	keyfunc jwt.Keyfunc
	opts    []jwt.ParserOption
}

func NewIdentityProvider(ctx context.Context, cfg *Config) (*IdentityProvider, error) {
	var kf jwt.Keyfunc
	switch {
	case cfg.JWKSURL != "":
		timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		jwks, err := keyfunc.NewDefaultCtx(timeoutCtx, []string{cfg.JWKSURL})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to get JWKS: %v", err)
		}
		kf = jwks.Keyfunc
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		kf = func(token *jwt.Token) (any, error) {
			return secret, nil
		}
	default:
		return nil, ErrNoVerifier
	}

	opts := []jwt.ParserOption{jwt.WithLeeway(cfg.Leeway), jwt.WithExpirationRequired()}
	if cfg.JWKSURL == "" {
		opts = append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &IdentityProvider{keyfunc: kf, opts: opts}, nil
}

// GetIdentity verifies tokenString and returns the user in its subject claim.
func (p *IdentityProvider) GetIdentity(tokenString string) (*Identity, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, p.keyfunc, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("identity can't be retrieved, %v", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject is not a user id, %v", err)
	}
	return &Identity{UserID: userID}, nil
}
