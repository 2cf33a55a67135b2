package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/bundle"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/render"
)

// Manager deploys rendered websites into the store and keeps their deployment records.
type Manager struct {
	cfg      *config.HostingConfig
	renderer *render.Renderer
	store    hosting.Store
	now      func() time.Time
}

func NewManager(cfg *config.HostingConfig, renderer *render.Renderer, store hosting.Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{cfg: cfg, renderer: renderer, store: store, now: now}
}

// HostingURL is https when the host serves everything over SSL or the site has SSL enabled.
func (m *Manager) HostingURL(subdomain string, ssl bool) string {
	scheme := m.cfg.Scheme()
	if ssl {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s.%s", scheme, subdomain, m.cfg.BaseDomain)
}

func categoryOf(template *entity.Template) consts.Category {
	if template == nil {
		return consts.CategoryBusiness
	}
	return template.Category
}

func (m *Manager) render(site *entity.Website, template *entity.Template) (render.Rendered, error) {
	rendered, err := m.renderer.Render(site, categoryOf(template))
	if errors.Is(err, render.ErrMissingName) {
		return render.Rendered{}, errs.ValidationError{Err: err}
	}
	if err != nil {
		return render.Rendered{}, fmt.Errorf("err rendering site, %v", err)
	}
	return rendered, nil
}

// storeError classifies a store failure for the caller.
func storeError(err error) error {
	switch {
	case errors.Is(err, hosting.ErrInvalidSubdomain):
		return errs.ValidationError{Err: err}
	case errors.Is(err, hosting.ErrNotFound):
		return errs.NotFoundError{Err: err}
	case errors.Is(err, hosting.ErrBusy), errors.Is(err, hosting.ErrExhausted), errors.Is(err, hosting.ErrClaimed):
		return errs.ConflictError{Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return errs.StorageError{Err: err}
}

func (m *Manager) release(ctx context.Context, claim *hosting.Claim) {
	if err := m.store.Release(context.WithoutCancel(ctx), claim); err != nil {
		slog.Error("err releasing claim", "subdomain", claim.Name, "err", err)
	}
}

func (m *Manager) deployment(site *entity.Website, subdomain string) hosting.Metadata {
	return hosting.Metadata{
		WebsiteID:   site.ID,
		WebsiteName: site.Name,
		Subdomain:   subdomain,
		HostingURL:  m.HostingURL(subdomain, m.cfg.UseSSL),
		DeployedAt:  m.now().UTC().Truncate(time.Second),
		SSLEnabled:  m.cfg.UseSSL,
		OwnerID:     site.OwnerID,
		Status:      consts.DeploymentStatusActive,
	}
}

// Deploy renders the site and publishes it under the requested subdomain, or a generated one when
// the request is empty or taken.
func (m *Manager) Deploy(ctx context.Context, site *entity.Website, template *entity.Template, requested string) (*dto.DeployResult, error) {
	rendered, err := m.render(site, template)
	if err != nil {
		return nil, err
	}

	claim, err := m.store.Allocate(ctx, requested, site.Name)
	if err != nil {
		return nil, storeError(err)
	}
	defer m.release(ctx, claim)

	meta := m.deployment(site, claim.Name)
	tree, err := bundle.Materialize(rendered, meta)
	if err != nil {
		return nil, err
	}
	if err := m.store.Publish(ctx, claim, tree); err != nil {
		slog.Error("err publishing site", "subdomain", claim.Name, "err", err)
		return nil, storeError(err)
	}

	slog.Info("deployed site", "website", site.ID, "subdomain", claim.Name, "url", meta.HostingURL)
	return &dto.DeployResult{
		Subdomain:  meta.Subdomain,
		HostingURL: meta.HostingURL,
		SSLEnabled: meta.SSLEnabled,
		DeployedAt: meta.DeployedAt,
		Message:    fmt.Sprintf("Site déployé avec succès ! Accessible sur %s", meta.HostingURL),
	}, nil
}

func (m *Manager) Undeploy(ctx context.Context, subdomain string) (*dto.Result, error) {
	claim, err := m.store.Acquire(ctx, subdomain)
	if err != nil {
		return nil, storeError(err)
	}
	defer m.release(ctx, claim)

	if err := m.store.Remove(ctx, claim); err != nil {
		if errors.Is(err, hosting.ErrNotFound) {
			return nil, errs.NotFoundError{Err: fmt.Errorf("site %s non trouvé", subdomain)}
		}
		return nil, storeError(err)
	}

	slog.Info("undeployed site", "subdomain", subdomain)
	return &dto.Result{Message: fmt.Sprintf("Site %s supprimé avec succès", subdomain)}, nil
}

// Update fully replaces the bundle of a deployed subdomain. The previous bundle stays online until
// the new one is published, and keeps serving if the replacement fails.
func (m *Manager) Update(ctx context.Context, subdomain string, site *entity.Website, template *entity.Template) (*dto.DeployResult, error) {
	rendered, err := m.render(site, template)
	if err != nil {
		return nil, err
	}

	claim, err := m.store.Acquire(ctx, subdomain)
	if err != nil {
		return nil, storeError(err)
	}
	defer m.release(ctx, claim)

	previous, err := m.store.ReadMetadata(ctx, subdomain)
	if err != nil {
		if errors.Is(err, hosting.ErrNotFound) {
			return nil, errs.NotFoundError{Err: fmt.Errorf("site %s non trouvé", subdomain)}
		}
		return nil, storeError(err)
	}

	meta := m.deployment(site, subdomain)
	meta.SSLEnabled = meta.SSLEnabled || previous.SSLEnabled
	meta.SSLConfiguredAt = previous.SSLConfiguredAt
	meta.HostingURL = m.HostingURL(subdomain, meta.SSLEnabled)

	tree, err := bundle.Materialize(rendered, meta)
	if err != nil {
		return nil, err
	}
	if err := m.store.Publish(ctx, claim, tree); err != nil {
		slog.Error("err republishing site, previous bundle kept", "subdomain", subdomain, "err", err)
		return nil, storeError(err)
	}

	slog.Info("redeployed site", "website", site.ID, "subdomain", subdomain)
	return &dto.DeployResult{
		Subdomain:  meta.Subdomain,
		HostingURL: meta.HostingURL,
		SSLEnabled: meta.SSLEnabled,
		DeployedAt: meta.DeployedAt,
		Message:    fmt.Sprintf("Site redéployé avec succès ! Accessible sur %s", meta.HostingURL),
	}, nil
}

// ReadMetadata returns nil without error when the subdomain is not deployed.
func (m *Manager) ReadMetadata(ctx context.Context, subdomain string) (*hosting.Metadata, error) {
	meta, err := m.store.ReadMetadata(ctx, subdomain)
	if errors.Is(err, hosting.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return meta, nil
}

func (m *Manager) ListAll(ctx context.Context) ([]hosting.Metadata, error) {
	sites, err := m.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return sites, nil
}

// EnableSSL marks a deployment as SSL-enabled. Certificates are provisioned outside this service.
func (m *Manager) EnableSSL(ctx context.Context, subdomain string) (*dto.Result, error) {
	claim, err := m.store.Acquire(ctx, subdomain)
	if err != nil {
		return nil, storeError(err)
	}
	defer m.release(ctx, claim)

	meta, err := m.store.ReadMetadata(ctx, subdomain)
	if err != nil {
		if errors.Is(err, hosting.ErrNotFound) {
			return nil, errs.NotFoundError{Err: errors.New("site non trouvé")}
		}
		return nil, storeError(err)
	}

	configuredAt := m.now().UTC().Truncate(time.Second)
	meta.SSLEnabled = true
	meta.SSLConfiguredAt = &configuredAt
	meta.HostingURL = m.HostingURL(subdomain, true)
	if err := m.store.WriteMetadata(ctx, claim, *meta); err != nil {
		return nil, storeError(err)
	}

	slog.Info("enabled ssl", "subdomain", subdomain)
	return &dto.Result{Message: fmt.Sprintf("SSL activé pour %s", subdomain)}, nil
}

// Export renders the site into a downloadable archive without touching the hosting root.
func (m *Manager) Export(_ context.Context, site *entity.Website, template *entity.Template) ([]byte, error) {
	rendered, err := m.render(site, template)
	if err != nil {
		return nil, err
	}
	archive, err := bundle.Package(rendered, bundle.Docs{
		Name:        site.Name,
		Description: site.Description,
		GeneratedAt: m.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("err packaging site, %v", err)
	}
	return archive, nil
}

// Restore publishes a previously saved bundle under its subdomain, replacing whatever is there.
// The tree must carry its deployment record.
func (m *Manager) Restore(ctx context.Context, subdomain string, tree bundle.Tree) (*dto.Result, error) {
	if _, ok := tree.Lookup(bundle.IndexFile); !ok {
		return nil, errs.ValidationError{Err: fmt.Errorf("bundle of %s has no %s", subdomain, bundle.IndexFile)}
	}
	if _, ok := tree.Lookup(bundle.MetadataFile); !ok {
		return nil, errs.ValidationError{Err: fmt.Errorf("bundle of %s has no deployment record", subdomain)}
	}

	claim, err := m.store.Acquire(ctx, subdomain)
	if err != nil {
		return nil, storeError(err)
	}
	defer m.release(ctx, claim)

	if err := m.store.Publish(ctx, claim, tree); err != nil {
		return nil, storeError(err)
	}

	slog.Info("restored site", "subdomain", subdomain, "files", len(tree))
	return &dto.Result{Message: fmt.Sprintf("Site %s restauré", subdomain)}, nil
}
