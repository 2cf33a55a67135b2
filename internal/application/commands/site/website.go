package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errNotHosted = errors.New("ce site n'est pas hébergé")

// lockOwnedWebsite loads the website for update together with its template, if it still exists.
func lockOwnedWebsite(ctx context.Context, tx pgx.Tx, websiteID uuid.UUID, identity *auth.Identity) (*entity.Website, *entity.Template, error) {
	model, err := repo.NewWebsiteRepo(tx).GetWebsiteForUpdate(ctx, websiteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, errs.NotFoundError{Err: errors.New("website not found")}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("err getting website, %v", err)
	}

	website := db.MapWebsiteModelToEntity(*model)
	if website.OwnerID != identity.UserID {
		return nil, nil, errs.PermissionsError{Err: fmt.Errorf("user requesting action, is not the site's owner")}
	}
	if website.TemplateID == nil {
		return &website, nil, nil
	}

	templateModel, err := repo.NewTemplateRepo(tx).GetTemplateByID(ctx, *website.TemplateID)
	if errors.Is(err, pgx.ErrNoRows) {
		slog.Warn("website template is gone, rendering with default", "website", website.ID, "template", *website.TemplateID)
		return &website, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("err getting template, %v", err)
	}
	template := db.MapTemplateModelToEntity(*templateModel)
	return &website, &template, nil
}
