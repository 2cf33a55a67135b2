package site

import (
	"context"
	"errors"
	"fmt"
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

type UndeploySite struct {
	uowFactory *dbs.UOWFactory
	manager    *hosting.Manager
}

func NewUndeploySite(uowFactory *dbs.UOWFactory, manager *hosting.Manager) *UndeploySite {
	return &UndeploySite{uowFactory: uowFactory, manager: manager}
}

func (c *UndeploySite) Execute(ctx context.Context, websiteID uuid.UUID, identity *auth.Identity) (result *dto.Result, err error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Finalize(&err)

	website, _, err := lockOwnedWebsite(ctx, tx, websiteID, identity)
	if err != nil {
		return nil, err
	}
	if !website.IsHosted || website.HostingSubdomain == "" {
		return nil, errs.ValidationError{Err: errNotHosted}
	}
	subdomain := website.HostingSubdomain

	result, err = c.manager.Undeploy(ctx, subdomain)
	var notFound errs.NotFoundError
	if errors.As(err, &notFound) {
		// the bundle is already gone, only the record is left to clear
		slog.Warn("hosted website had no bundle", "website", website.ID, "subdomain", subdomain)
		result = &dto.Result{Message: fmt.Sprintf("Site %s supprimé avec succès", subdomain)}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	website.MarkUnhosted(time.Now().UTC())
	if err = repo.NewWebsiteRepo(tx).UpdateHosting(ctx, db.MapWebsiteEntityToModel(*website)); err != nil {
		return nil, err
	}

	err = repo.NewEventRepo(tx).InsertEvent(ctx, events.SiteUndeployed{WebsiteID: website.ID, Subdomain: subdomain})
	if err != nil {
		return nil, err
	}

	return result, nil
}
