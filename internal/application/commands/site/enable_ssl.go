package site

import (
	"context"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/google/uuid"
)

type EnableSSL struct {
	uowFactory *dbs.UOWFactory
	manager    *hosting.Manager
}

func NewEnableSSL(uowFactory *dbs.UOWFactory, manager *hosting.Manager) *EnableSSL {
	return &EnableSSL{uowFactory: uowFactory, manager: manager}
}

// Execute flags the hosted site as served over https and rewrites its stored URL.
func (c *EnableSSL) Execute(ctx context.Context, websiteID uuid.UUID, identity *auth.Identity) (result *dto.Result, err error) {
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

	result, err = c.manager.EnableSSL(ctx, website.HostingSubdomain)
	if err != nil {
		return nil, err
	}

	website.SSLEnabled = true
	website.HostingURL = c.manager.HostingURL(website.HostingSubdomain, true)
	website.UpdatedAt = time.Now().UTC()
	if err = repo.NewWebsiteRepo(tx).UpdateHosting(ctx, db.MapWebsiteEntityToModel(*website)); err != nil {
		return nil, err
	}

	return result, nil
}
