package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	infra "github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ExportSite struct {
	uowFactory *dbs.UOWFactory
	manager    *hosting.Manager
}

func NewExportSite(uowFactory *dbs.UOWFactory, manager *hosting.Manager) *ExportSite {
	return &ExportSite{uowFactory: uowFactory, manager: manager}
}

// Query renders the website into a ZIP archive named after its slug.
func (c *ExportSite) Query(ctx context.Context, websiteID uuid.UUID, identity *auth.Identity) (*dto.Export, error) {
	return c.export(ctx, websiteID, func(website *entity.Website) error {
		if website.OwnerID != identity.UserID {
			return errs.PermissionsError{Err: fmt.Errorf("user requesting export, is not the site's owner")}
		}
		return nil
	})
}

// QueryAny exports any website. Used by operator tooling that already runs with full access.
func (c *ExportSite) QueryAny(ctx context.Context, websiteID uuid.UUID) (*dto.Export, error) {
	return c.export(ctx, websiteID, func(*entity.Website) error { return nil })
}

func (c *ExportSite) export(ctx context.Context, websiteID uuid.UUID, allow func(*entity.Website) error) (*dto.Export, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	model, err := repo.NewWebsiteRepo(tx).GetWebsiteByID(ctx, websiteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundError{Err: errors.New("website not found")}
	}
	if err != nil {
		return nil, fmt.Errorf("err getting website, %v", err)
	}
	website := db.MapWebsiteModelToEntity(*model)
	if err := allow(&website); err != nil {
		return nil, err
	}

	var template *entity.Template
	if website.TemplateID != nil {
		templateModel, err := repo.NewTemplateRepo(tx).GetTemplateByID(ctx, *website.TemplateID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("err getting template, %v", err)
		}
		if err == nil {
			t := db.MapTemplateModelToEntity(*templateModel)
			template = &t
		}
	}

	archive, err := c.manager.Export(ctx, &website, template)
	if err != nil {
		return nil, err
	}
	return &dto.Export{Filename: ExportFilename(&website), Archive: archive}, nil
}

func ExportFilename(website *entity.Website) string {
	name := website.Slug
	if name == "" {
		name = infra.Slugify(website.Name)
	}
	return name + "-export.zip"
}
