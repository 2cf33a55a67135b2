package entity

import (
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/google/uuid"
)

// Content maps a section name to its fields. Field values are strings or lists of nested documents.
type Content map[string]map[string]any

// Merge replaces only the top-level sections present in patch.
func (c Content) Merge(patch Content) Content {
	merged := make(Content, len(c)+len(patch))
	for section, fields := range c {
		merged[section] = fields
	}
	for section, fields := range patch {
		merged[section] = fields
	}
	return merged
}

// Field returns the string value at section.field, or "" when missing or not a string.
func (c Content) Field(section, field string) string {
	fields, ok := c[section]
	if !ok {
		return ""
	}
	value, ok := fields[field].(string)
	if !ok {
		return ""
	}
	return value
}

type Website struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Name             string
	Slug             string
	Description      string
	TemplateID       *uuid.UUID
	Content          Content
	Settings         map[string]any
	CustomCSS        string
	CustomJS         string
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     string
	Status           consts.WebsiteStatus
	IsHosted         bool
	HostingSubdomain string
	HostingURL       string
	SSLEnabled       bool
	DeployedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (w *Website) MarkHosted(subdomain, url string, at time.Time) {
	w.IsHosted = true
	w.HostingSubdomain = subdomain
	w.HostingURL = url
	w.Status = consts.WebsiteStatusPublished
	w.DeployedAt = &at
	w.UpdatedAt = at
}

func (w *Website) MarkUnhosted(at time.Time) {
	w.IsHosted = false
	w.HostingSubdomain = ""
	w.HostingURL = ""
	w.SSLEnabled = false
	w.Status = consts.WebsiteStatusDraft
	w.DeployedAt = nil
	w.UpdatedAt = at
}

type Template struct {
	ID             uuid.UUID
	Name           string
	Category       consts.Category
	Structure      map[string]any
	DefaultContent Content
}

// Deployment is the record stored beside a hosted bundle.
type Deployment struct {
	WebsiteID       uuid.UUID               `json:"website_id"`
	WebsiteName     string                  `json:"website_name"`
	Subdomain       string                  `json:"subdomain"`
	HostingURL      string                  `json:"hosting_url"`
	DeployedAt      time.Time               `json:"deployed_at"`
	SSLEnabled      bool                    `json:"ssl_enabled"`
	OwnerID         uuid.UUID               `json:"owner_id"`
	Status          consts.DeploymentStatus `json:"status"`
	SSLConfiguredAt *time.Time              `json:"ssl_configured_at,omitempty"`
}
