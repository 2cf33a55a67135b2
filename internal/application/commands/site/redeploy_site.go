package site

import (
	"context"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/events"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/google/uuid"
)

type RedeploySite struct {
	uowFactory *dbs.UOWFactory
	manager    *hosting.Manager
}

func NewRedeploySite(uowFactory *dbs.UOWFactory, manager *hosting.Manager) *RedeploySite {
	return &RedeploySite{uowFactory: uowFactory, manager: manager}
}

// Execute replaces the hosted bundle with a fresh render of the current content.
func (c *RedeploySite) Execute(ctx context.Context, websiteID uuid.UUID, identity *auth.Identity) (result *dto.DeployResult, err error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Finalize(&err)

	website, template, err := lockOwnedWebsite(ctx, tx, websiteID, identity)
	if err != nil {
		return nil, err
	}
	if !website.IsHosted || website.HostingSubdomain == "" {
		return nil, errs.ValidationError{Err: errNotHosted}
	}

	result, err = c.manager.Update(ctx, website.HostingSubdomain, website, template)
	if err != nil {
		return nil, err
	}

	website.MarkHosted(result.Subdomain, result.HostingURL, time.Now().UTC())
	website.SSLEnabled = result.SSLEnabled
	if err = repo.NewWebsiteRepo(tx).UpdateHosting(ctx, db.MapWebsiteEntityToModel(*website)); err != nil {
		return nil, err
	}

	err = repo.NewEventRepo(tx).InsertEvent(ctx, events.SiteDeployed{
		WebsiteID:  website.ID,
		Subdomain:  result.Subdomain,
		HostingURL: result.HostingURL,
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
