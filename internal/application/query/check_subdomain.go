package query

import (
	"context"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
)

type CheckSubdomain struct {
	store hosting.Store
}

func NewCheckSubdomain(store hosting.Store) *CheckSubdomain {
	return &CheckSubdomain{store: store}
}

func (c *CheckSubdomain) Query(ctx context.Context, subdomain string) (dto.SubdomainAvailability, error) {
	name, err := hosting.NormalizeSubdomain(subdomain)
	if err != nil {
		return dto.SubdomainAvailability{}, errs.ValidationError{Err: err}
	}
	available, err := c.store.IsAvailable(ctx, name)
	if err != nil {
		return dto.SubdomainAvailability{}, errs.StorageError{Err: err}
	}
	return dto.SubdomainAvailability{Subdomain: name, Available: available}, nil
}
