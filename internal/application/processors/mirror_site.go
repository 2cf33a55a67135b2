package processors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/events"
	shared "github.com/Builder-Lawyers/hosting-backend/pkg/interfaces"
)

type Mirror interface {
	SyncBundle(ctx context.Context, subdomain, dir string) error
	RemoveBundle(ctx context.Context, subdomain string) error
}

type Bundles interface {
	Exists(ctx context.Context, name string) (bool, error)
	BundlePath(name string) string
}

// MirrorSite copies a freshly deployed bundle to object storage.
type MirrorSite struct {
	mirror  Mirror
	bundles Bundles
}

func NewMirrorSite(mirror Mirror, bundles Bundles) *MirrorSite {
	return &MirrorSite{mirror: mirror, bundles: bundles}
}

func (c *MirrorSite) Handle(ctx context.Context, event events.SiteDeployed) (shared.UoW, error) {
	if c.mirror == nil {
		return nil, nil
	}
	exists, err := c.bundles.Exists(ctx, event.Subdomain)
	if err != nil {
		return nil, err
	}
	if !exists {
		slog.Info("bundle gone before mirroring, skipping", "subdomain", event.Subdomain)
		return nil, nil
	}

	// a concurrent redeploy may swap the directory while it is read
	if err := c.mirror.SyncBundle(ctx, event.Subdomain, c.bundles.BundlePath(event.Subdomain)); err != nil {
		return nil, errs.RetryableError{Err: fmt.Errorf("err mirroring %s, %v", event.Subdomain, err)}
	}
	slog.Info("mirrored site", "subdomain", event.Subdomain)
	return nil, nil
}

type UnmirrorSite struct {
	mirror  Mirror
	bundles Bundles
}

func NewUnmirrorSite(mirror Mirror, bundles Bundles) *UnmirrorSite {
	return &UnmirrorSite{mirror: mirror, bundles: bundles}
}

func (c *UnmirrorSite) Handle(ctx context.Context, event events.SiteUndeployed) (shared.UoW, error) {
	if c.mirror == nil {
		return nil, nil
	}
	exists, err := c.bundles.Exists(ctx, event.Subdomain)
	if err != nil {
		return nil, err
	}
	if exists {
		// the name was deployed again, that deployment owns the mirror now
		slog.Info("subdomain redeployed, keeping mirror", "subdomain", event.Subdomain)
		return nil, nil
	}

	if err := c.mirror.RemoveBundle(ctx, event.Subdomain); err != nil {
		return nil, errs.RetryableError{Err: fmt.Errorf("err removing mirror of %s, %v", event.Subdomain, err)}
	}
	slog.Info("removed site mirror", "subdomain", event.Subdomain)
	return nil, nil
}
