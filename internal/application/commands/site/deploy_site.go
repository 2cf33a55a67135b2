package site

import (
	"context"
	"errors"
	"log/slog"
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

type DeploySite struct {
	uowFactory *dbs.UOWFactory
	manager    *hosting.Manager
}

func NewDeploySite(uowFactory *dbs.UOWFactory, manager *hosting.Manager) *DeploySite {
	return &DeploySite{uowFactory: uowFactory, manager: manager}
}

// Execute publishes a draft website and records where it is hosted. When the record can't be
// saved the fresh bundle is removed again.
func (c *DeploySite) Execute(ctx context.Context, websiteID uuid.UUID, customSubdomain string, identity *auth.Identity) (result *dto.DeployResult, err error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}

	var deployed *dto.DeployResult
	defer func() {
		if err == nil || deployed == nil {
			return
		}
		slog.Error("err recording deployment, removing bundle", "subdomain", deployed.Subdomain, "err", err)
		if _, undeployErr := c.manager.Undeploy(context.WithoutCancel(ctx), deployed.Subdomain); undeployErr != nil {
			slog.Error("err removing unrecorded bundle", "subdomain", deployed.Subdomain, "err", undeployErr)
		}
		result = nil
	}()
	defer uow.Finalize(&err)

	website, template, err := lockOwnedWebsite(ctx, tx, websiteID, identity)
	if err != nil {
		return nil, err
	}
	if website.IsHosted {
		return nil, errs.ConflictError{Err: errors.New("ce site est déjà hébergé, utilisez le redéploiement")}
	}

	deployed, err = c.manager.Deploy(ctx, website, template, customSubdomain)
	if err != nil {
		return nil, err
	}

	website.MarkHosted(deployed.Subdomain, deployed.HostingURL, time.Now().UTC())
	website.SSLEnabled = deployed.SSLEnabled
	if err = repo.NewWebsiteRepo(tx).UpdateHosting(ctx, db.MapWebsiteEntityToModel(*website)); err != nil {
		return nil, err
	}

	err = repo.NewEventRepo(tx).InsertEvent(ctx, events.SiteDeployed{
		WebsiteID:  website.ID,
		Subdomain:  deployed.Subdomain,
		HostingURL: deployed.HostingURL,
	})
	if err != nil {
		return nil, err
	}

	return deployed, nil
}
