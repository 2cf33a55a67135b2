package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Website struct {
	ID               uuid.UUID       `db:"id"`
	OwnerID          uuid.UUID       `db:"owner_id"`
	Name             string          `db:"name"`
	Slug             string          `db:"slug"`
	Description      string          `db:"description"`
	TemplateID       *uuid.UUID      `db:"template_id"`
	Content          json.RawMessage `db:"content"`
	Settings         json.RawMessage `db:"settings"`
	CustomCSS        string          `db:"custom_css"`
	CustomJS         string          `db:"custom_js"`
	MetaTitle        string          `db:"meta_title"`
	MetaDescription  string          `db:"meta_description"`
	MetaKeywords     string          `db:"meta_keywords"`
	Status           string          `db:"status"`
	IsHosted         bool            `db:"is_hosted"`
	HostingSubdomain *string         `db:"hosting_subdomain"`
	HostingURL       *string         `db:"hosting_url"`
	SSLEnabled       bool            `db:"ssl_enabled"`
	DeployedAt       *time.Time      `db:"deployed_at"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type Template struct {
	ID             uuid.UUID       `db:"id"`
	Name           string          `db:"name"`
	Category       string          `db:"category"`
	Structure      json.RawMessage `db:"structure"`
	DefaultContent json.RawMessage `db:"default_content"`
}

type Outbox struct {
	ID        uint64          `db:"id"`
	Event     string          `db:"event"`
	Status    int             `db:"status"`
	Payload   json.RawMessage `db:"payload"`
	Attempts  int             `db:"attempts"`
	CreatedAt time.Time       `db:"created_at"`
}
