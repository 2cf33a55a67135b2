package dto

import (
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Result struct {
	Message string `json:"message"`
}

type DeployResult struct {
	Subdomain  string    `json:"subdomain"`
	HostingURL string    `json:"hosting_url"`
	SSLEnabled bool      `json:"ssl_enabled"`
	DeployedAt time.Time `json:"deployed_at"`
	Message    string    `json:"message"`
}

type Export struct {
	Filename string
	Archive  []byte
}

type HostedSitesResponse struct {
	Sites []entity.Deployment `json:"sites"`
}

type SubdomainAvailability struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
}

// UpdateContentRequest carries the editable fields of a website. Nil fields are left untouched and
// Content replaces only the sections it names.
type UpdateContentRequest struct {
	Name            *string        `json:"name,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Content         entity.Content `json:"content,omitempty"`
	CustomCSS       *string        `json:"custom_css,omitempty"`
	CustomJS        *string        `json:"custom_js,omitempty"`
	MetaTitle       *string        `json:"meta_title,omitempty"`
	MetaDescription *string        `json:"meta_description,omitempty"`
	MetaKeywords    *string        `json:"meta_keywords,omitempty"`
}
