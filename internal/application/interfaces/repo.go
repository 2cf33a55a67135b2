package interfaces

import (
	"context"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/pkg/interfaces"
	"github.com/google/uuid"
)

type WebsiteRepo interface {
	GetWebsiteByID(ctx context.Context, id uuid.UUID) (*db.Website, error)
	GetWebsiteForUpdate(ctx context.Context, id uuid.UUID) (*db.Website, error)
	GetWebsiteBySubdomain(ctx context.Context, subdomain string) (*db.Website, error)
	InsertWebsite(ctx context.Context, website db.Website) error
	UpdateHosting(ctx context.Context, website db.Website) error
	UpdateContent(ctx context.Context, website db.Website) error
	ListHostedByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Website, error)
}

type TemplateRepo interface {
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*db.Template, error)
	InsertTemplate(ctx context.Context, template db.Template) error
}

type EventRepo interface {
	InsertEvent(ctx context.Context, event interfaces.Event) error
}
