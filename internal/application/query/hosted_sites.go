package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
)

type ListHostedSites struct {
	manager *hosting.Manager
}

func NewListHostedSites(manager *hosting.Manager) *ListHostedSites {
	return &ListHostedSites{manager: manager}
}

// Query returns the deployment records owned by the caller.
func (c *ListHostedSites) Query(ctx context.Context, identity *auth.Identity) ([]entity.Deployment, error) {
	sites, err := c.manager.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]entity.Deployment, 0, len(sites))
	for _, site := range sites {
		if site.OwnerID == identity.UserID {
			owned = append(owned, site)
		}
	}
	return owned, nil
}

type GetHostedSite struct {
	manager *hosting.Manager
}

func NewGetHostedSite(manager *hosting.Manager) *GetHostedSite {
	return &GetHostedSite{manager: manager}
}

func (c *GetHostedSite) Query(ctx context.Context, subdomain string, identity *auth.Identity) (*entity.Deployment, error) {
	meta, err := c.manager.ReadMetadata(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errs.NotFoundError{Err: fmt.Errorf("site %s non trouvé", subdomain)}
	}
	if meta.OwnerID != identity.UserID {
		return nil, errs.PermissionsError{Err: errors.New("user requesting site, is not the site's owner")}
	}
	return meta, nil
}
