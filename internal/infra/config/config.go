package config

import (
	"strings"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/pkg/env"
)

type ClaimBackend string

const (
	ClaimBackendFS    ClaimBackend = "fs"
	ClaimBackendRedis ClaimBackend = "redis"
)

type HostingConfig struct {
	Root         string
	BaseDomain   string
	UseSSL       bool
	RouterAddr   string
	ClaimBackend ClaimBackend
	// ClaimTTL bounds how long an abandoned claim or staging dir survives.
	ClaimTTL  time.Duration
	ClaimWait time.Duration
}

func NewHostingConfig() *HostingConfig {
	return &HostingConfig{
		Root:         env.GetEnv("HOSTING_ROOT", "./hosted_sites"),
		BaseDomain:   env.GetEnv("HOSTING_BASE_DOMAIN", "localhost:3001"),
		UseSSL:       env.GetEnvBool("USE_SSL", false),
		RouterAddr:   env.GetEnv("HOSTING_ADDR", ":3001"),
		ClaimBackend: ClaimBackend(strings.ToLower(env.GetEnv("HOSTING_CLAIM_BACKEND", string(ClaimBackendFS)))),
		ClaimTTL:     env.GetEnvDuration("HOSTING_CLAIM_TTL", 5*time.Minute),
		ClaimWait:    env.GetEnvDuration("HOSTING_CLAIM_WAIT", 10*time.Second),
	}
}

// Scheme is https when SSL is enabled for the whole host.
func (c *HostingConfig) Scheme() string {
	if c.UseSSL {
		return "https"
	}
	return "http"
}

// BareDomain is the base domain without its port.
func (c *HostingConfig) BareDomain() string {
	host := c.BaseDomain
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.ToLower(host)
}

type APIConfig struct {
	Addr         string
	AllowOrigins string
}

func NewAPIConfig() *APIConfig {
	return &APIConfig{
		Addr:         env.GetEnv("API_ADDR", ":8080"),
		AllowOrigins: env.GetEnv("API_ALLOW_ORIGINS", "http://localhost:3000"),
	}
}

type LogConfig struct {
	Format string
	Level  string
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		Format: strings.ToLower(env.GetEnv("LOG_FORMAT", "text")),
		Level:  strings.ToLower(env.GetEnv("LOG_LEVEL", "info")),
	}
}
