package site

import (
	"context"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/google/uuid"
)

type UpdateContent struct {
	uowFactory *dbs.UOWFactory
}

func NewUpdateContent(factory *dbs.UOWFactory) *UpdateContent {
	return &UpdateContent{uowFactory: factory}
}

// Execute applies req to the stored website. A hosted site keeps serving its last deployed bundle
// until it is redeployed.
func (c *UpdateContent) Execute(ctx context.Context, websiteID uuid.UUID, req *dto.UpdateContentRequest, identity *auth.Identity) (website *entity.Website, err error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Finalize(&err)

	website, _, err = lockOwnedWebsite(ctx, tx, websiteID, identity)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		website.Content = website.Content.Merge(req.Content)
	}
	assign(&website.Name, req.Name)
	assign(&website.Description, req.Description)
	assign(&website.CustomCSS, req.CustomCSS)
	assign(&website.CustomJS, req.CustomJS)
	assign(&website.MetaTitle, req.MetaTitle)
	assign(&website.MetaDescription, req.MetaDescription)
	assign(&website.MetaKeywords, req.MetaKeywords)
	website.UpdatedAt = time.Now().UTC()

	if err = repo.NewWebsiteRepo(tx).UpdateContent(ctx, db.MapWebsiteEntityToModel(*website)); err != nil {
		return nil, err
	}
	return website, nil
}

func assign(field *string, value *string) {
	if value != nil {
		*field = *value
	}
}
