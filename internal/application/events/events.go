package events

import (
	"time"

	"github.com/google/uuid"
)

type SiteDeployed struct {
	WebsiteID  uuid.UUID
	Subdomain  string
	HostingURL string
	CreatedAt  time.Time
}

func (e SiteDeployed) GetType() string {
	return "SiteDeployed"
}

type SiteUndeployed struct {
	WebsiteID uuid.UUID
	Subdomain string
	CreatedAt time.Time
}

func (e SiteUndeployed) GetType() string {
	return "SiteUndeployed"
}
