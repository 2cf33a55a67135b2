package host_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	manager "github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/bundle"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/render"
	"github.com/Builder-Lawyers/hosting-backend/internal/presentation/host"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app     *fiber.App
	manager *manager.Manager
	store   *hosting.FSStore
}

func setup(t *testing.T) fixture {
	t.Helper()
	cfg := &config.HostingConfig{
		Root:       t.TempDir(),
		BaseDomain: "localhost:3001",
		ClaimTTL:   time.Minute,
		ClaimWait:  200 * time.Millisecond,
	}
	claimer, err := hosting.NewDirClaimer(filepath.Join(cfg.Root, hosting.ClaimsDir), cfg.ClaimTTL)
	require.NoError(t, err)
	store, err := hosting.NewFSStore(cfg, claimer)
	require.NoError(t, err)
	renderer, err := render.NewRenderer(render.Config{})
	require.NoError(t, err)
	return fixture{
		app:     host.NewApp(host.NewRouter(cfg, store)),
		manager: manager.NewManager(cfg, renderer, store, nil),
		store:   store,
	}
}

func (f fixture) get(t *testing.T, hostHeader, path string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = hostHeader
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func deploy(t *testing.T, f fixture) *entity.Website {
	t.Helper()
	site := &entity.Website{
		ID:        uuid.New(),
		Name:      "Mon Blog",
		Content:   entity.Content{"hero": {"title": "Bienvenue"}},
		CustomCSS: "body { margin: 0; }",
	}
	result, err := f.manager.Deploy(context.Background(), site, nil, "")
	require.NoError(t, err)
	require.Equal(t, "mon-blog", result.Subdomain)
	return site
}

func Test_Serve_When_RootRequested_Then_DeployedIndexBytes(t *testing.T) {
	f := setup(t)
	deploy(t, f)
	written, err := os.ReadFile(filepath.Join(f.store.BundlePath("mon-blog"), bundle.IndexFile))
	require.NoError(t, err)

	resp, body := f.get(t, "mon-blog.localhost:3001", "/")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html", resp.Header.Get(fiber.HeaderContentType))
	require.Equal(t, string(written), body)
	require.Contains(t, body, "Bienvenue")
}

func Test_Serve_When_AssetRequested_Then_ContentTypeFromExtension(t *testing.T) {
	f := setup(t)
	deploy(t, f)

	resp, body := f.get(t, "MON-BLOG.localhost:3001", "/assets/style.css")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/css", resp.Header.Get(fiber.HeaderContentType))
	require.Equal(t, "body { margin: 0; }", body)
}

func Test_Serve_When_NotFound_Then_404(t *testing.T) {
	f := setup(t)
	deploy(t, f)

	cases := map[string][2]string{
		"unknown subdomain": {"ghost.localhost:3001", "/"},
		"missing file":      {"mon-blog.localhost:3001", "/missing.html"},
		"traversal":         {"mon-blog.localhost:3001", "/../../etc/passwd"},
		"encoded traversal": {"mon-blog.localhost:3001", "/assets/%2e%2e/%2e%2e/%2e%2e/etc/passwd"},
		"metadata file":     {"mon-blog.localhost:3001", "/" + bundle.MetadataFile},
		"directory":         {"mon-blog.localhost:3001", "/assets"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := f.get(t, tc[0], tc[1])
			require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		})
	}
}

func Test_Serve_When_Undeployed_Then_404(t *testing.T) {
	f := setup(t)
	deploy(t, f)
	_, err := f.manager.Undeploy(context.Background(), "mon-blog")
	require.NoError(t, err)

	for _, path := range []string{"/", "/index.html", "/assets/style.css"} {
		resp, _ := f.get(t, "mon-blog.localhost:3001", path)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}
}

func Test_Serve_When_HostHasNoDotOrIsBaseDomain_Then_Welcome(t *testing.T) {
	f := setup(t)

	for _, hostHeader := range []string{"localhost:3001", "localhost"} {
		resp, body := f.get(t, hostHeader, "/")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Hébergement de Sites IA")
		require.Contains(t, body, "http://[sous-domaine].localhost:3001")
	}
}

func Test_Serve_When_BareBaseDomainWithDot_Then_Welcome(t *testing.T) {
	cfg := &config.HostingConfig{Root: t.TempDir(), BaseDomain: "sites.example.com"}
	claimer, err := hosting.NewDirClaimer(filepath.Join(cfg.Root, hosting.ClaimsDir), time.Minute)
	require.NoError(t, err)
	store, err := hosting.NewFSStore(cfg, claimer)
	require.NoError(t, err)
	app := host.NewApp(host.NewRouter(cfg, store))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "sites.example.com"
	resp, err := app.Test(req, -1)

	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
