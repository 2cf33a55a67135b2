package hosting_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	manager "github.com/Builder-Lawyers/hosting-backend/internal/application/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/bundle"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/render"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type failingPublishStore struct {
	*hosting.FSStore
}

func (f failingPublishStore) Publish(context.Context, *hosting.Claim, bundle.Tree) error {
	return errors.New("disk full")
}

func setup(t *testing.T) (*manager.Manager, *hosting.FSStore, *config.HostingConfig) {
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
	renderer, err := render.NewRenderer(render.Config{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return manager.NewManager(cfg, renderer, store, func() time.Time { return fixedNow }), store, cfg
}

func monBlog() *entity.Website {
	return &entity.Website{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "Mon Blog",
		Content:   entity.Content{"hero": {"title": "Bienvenue"}},
		CustomCSS: ".hero { color: red; }",
	}
}

var blogTemplate = &entity.Template{Category: consts.CategoryBlog}

func readIndex(t *testing.T, store *hosting.FSStore, subdomain string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(store.BundlePath(subdomain), bundle.IndexFile))
	require.NoError(t, err)
	return string(data)
}

func Test_Deploy_When_NameFree_Then_SlugSubdomainAndURL(t *testing.T) {
	SUT, store, _ := setup(t)
	site := monBlog()

	result, err := SUT.Deploy(context.Background(), site, blogTemplate, "")

	require.NoError(t, err)
	require.Equal(t, "mon-blog", result.Subdomain)
	require.Equal(t, "http://mon-blog.localhost:3001", result.HostingURL)
	require.False(t, result.SSLEnabled)
	require.Equal(t, fixedNow, result.DeployedAt)
	require.Contains(t, result.Message, result.HostingURL)
	require.Contains(t, readIndex(t, store, "mon-blog"), "Bienvenue")

	meta, err := SUT.ReadMetadata(context.Background(), "mon-blog")
	require.NoError(t, err)
	require.Equal(t, site.ID, meta.WebsiteID)
	require.Equal(t, site.OwnerID, meta.OwnerID)
	require.Equal(t, consts.DeploymentStatusActive, meta.Status)
}

func Test_Deploy_When_SameNameTwice_Then_SecondGetsSuffix(t *testing.T) {
	SUT, _, _ := setup(t)
	ctx := context.Background()

	first, err := SUT.Deploy(ctx, monBlog(), blogTemplate, "")
	require.NoError(t, err)
	second, err := SUT.Deploy(ctx, monBlog(), blogTemplate, "")
	require.NoError(t, err)
	third, err := SUT.Deploy(ctx, monBlog(), blogTemplate, "mon-blog")
	require.NoError(t, err)

	require.Equal(t, "mon-blog", first.Subdomain)
	require.Equal(t, "mon-blog-1", second.Subdomain)
	require.Equal(t, "mon-blog-2", third.Subdomain)
}

func Test_Deploy_When_RequestedFree_Then_Used(t *testing.T) {
	SUT, _, _ := setup(t)

	result, err := SUT.Deploy(context.Background(), monBlog(), nil, "Journal")

	require.NoError(t, err)
	require.Equal(t, "journal", result.Subdomain)
}

func Test_Deploy_When_RequestedInvalid_Then_ValidationError(t *testing.T) {
	SUT, store, _ := setup(t)

	_, err := SUT.Deploy(context.Background(), monBlog(), nil, "bad_name!")

	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)
	sites, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, sites)
}

func Test_Deploy_When_SSLEnabledGlobally_Then_HTTPS(t *testing.T) {
	SUT, _, cfg := setup(t)
	cfg.UseSSL = true

	result, err := SUT.Deploy(context.Background(), monBlog(), nil, "")

	require.NoError(t, err)
	require.Equal(t, "https://mon-blog.localhost:3001", result.HostingURL)
	require.True(t, result.SSLEnabled)
}

func Test_Deploy_When_PublishFails_Then_StorageErrorAndNameFreed(t *testing.T) {
	SUT, store, cfg := setup(t)
	renderer, err := render.NewRenderer(render.Config{})
	require.NoError(t, err)
	failing := manager.NewManager(cfg, renderer, failingPublishStore{store}, nil)

	_, err = failing.Deploy(context.Background(), monBlog(), nil, "")

	var storageErr errs.StorageError
	require.ErrorAs(t, err, &storageErr)
	available, err := store.IsAvailable(context.Background(), "mon-blog")
	require.NoError(t, err)
	require.True(t, available)

	result, err := SUT.Deploy(context.Background(), monBlog(), nil, "")
	require.NoError(t, err)
	require.Equal(t, "mon-blog", result.Subdomain)
}

func Test_Deploy_When_SiteNil_Then_ValidationError(t *testing.T) {
	SUT, _, _ := setup(t)

	_, err := SUT.Deploy(context.Background(), nil, nil, "")

	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)
}

func Test_Undeploy_Then_BundleAndMetadataGone(t *testing.T) {
	SUT, store, _ := setup(t)
	ctx := context.Background()
	_, err := SUT.Deploy(ctx, monBlog(), nil, "")
	require.NoError(t, err)

	result, err := SUT.Undeploy(ctx, "mon-blog")

	require.NoError(t, err)
	require.Contains(t, result.Message, "mon-blog")
	meta, err := SUT.ReadMetadata(ctx, "mon-blog")
	require.NoError(t, err)
	require.Nil(t, meta)
	_, err = os.Stat(store.BundlePath("mon-blog"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func Test_Undeploy_When_Absent_Then_NotFound(t *testing.T) {
	SUT, _, _ := setup(t)

	_, err := SUT.Undeploy(context.Background(), "nothing-here")

	var notFound errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func Test_Update_When_Repeated_Then_SameTreeEachTime(t *testing.T) {
	SUT, store, _ := setup(t)
	ctx := context.Background()
	site := monBlog()
	_, err := SUT.Deploy(ctx, site, blogTemplate, "")
	require.NoError(t, err)

	site.Content = site.Content.Merge(entity.Content{"hero": {"title": "Nouveau titre"}})
	first, err := SUT.Update(ctx, "mon-blog", site, blogTemplate)
	require.NoError(t, err)
	firstIndex := readIndex(t, store, "mon-blog")
	second, err := SUT.Update(ctx, "mon-blog", site, blogTemplate)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, firstIndex, readIndex(t, store, "mon-blog"))
	require.Contains(t, firstIndex, "Nouveau titre")
	sites, err := SUT.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
}

func Test_Update_When_NotDeployed_Then_NotFound(t *testing.T) {
	SUT, _, _ := setup(t)

	_, err := SUT.Update(context.Background(), "mon-blog", monBlog(), nil)

	var notFound errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func Test_Update_When_PublishFails_Then_PreviousSiteStillServed(t *testing.T) {
	SUT, store, cfg := setup(t)
	ctx := context.Background()
	_, err := SUT.Deploy(ctx, monBlog(), blogTemplate, "")
	require.NoError(t, err)
	before := readIndex(t, store, "mon-blog")

	renderer, err := render.NewRenderer(render.Config{})
	require.NoError(t, err)
	failing := manager.NewManager(cfg, renderer, failingPublishStore{store}, nil)
	site := monBlog()
	site.Content = entity.Content{"hero": {"title": "Jamais publié"}}
	_, err = failing.Update(ctx, "mon-blog", site, blogTemplate)

	var storageErr errs.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, before, readIndex(t, store, "mon-blog"))
}

func Test_Update_When_SSLEnabled_Then_SSLKept(t *testing.T) {
	SUT, _, _ := setup(t)
	ctx := context.Background()
	site := monBlog()
	_, err := SUT.Deploy(ctx, site, nil, "")
	require.NoError(t, err)
	_, err = SUT.EnableSSL(ctx, "mon-blog")
	require.NoError(t, err)

	result, err := SUT.Update(ctx, "mon-blog", site, nil)

	require.NoError(t, err)
	require.True(t, result.SSLEnabled)
	require.Equal(t, "https://mon-blog.localhost:3001", result.HostingURL)
	meta, err := SUT.ReadMetadata(ctx, "mon-blog")
	require.NoError(t, err)
	require.NotNil(t, meta.SSLConfiguredAt)
	require.Equal(t, "https://mon-blog.localhost:3001", meta.HostingURL)
}

func Test_EnableSSL_Then_FlagAndTimestampSet(t *testing.T) {
	SUT, _, _ := setup(t)
	ctx := context.Background()
	_, err := SUT.Deploy(ctx, monBlog(), nil, "")
	require.NoError(t, err)

	result, err := SUT.EnableSSL(ctx, "mon-blog")

	require.NoError(t, err)
	require.Equal(t, "SSL activé pour mon-blog", result.Message)
	meta, err := SUT.ReadMetadata(ctx, "mon-blog")
	require.NoError(t, err)
	require.True(t, meta.SSLEnabled)
	require.Equal(t, "https://mon-blog.localhost:3001", meta.HostingURL)
	require.True(t, fixedNow.Equal(*meta.SSLConfiguredAt))
}

func Test_EnableSSL_When_Absent_Then_NotFound(t *testing.T) {
	SUT, _, _ := setup(t)

	_, err := SUT.EnableSSL(context.Background(), "ghost")

	var notFound errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func Test_Export_Then_ArchiveContainsHeroAndCSSVerbatim(t *testing.T) {
	SUT, store, _ := setup(t)
	site := monBlog()

	archive, err := SUT.Export(context.Background(), site, blogTemplate)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}
	require.Contains(t, files[bundle.IndexFile], "Bienvenue")
	require.Contains(t, files[bundle.IndexFile], site.CustomCSS)
	require.Equal(t, site.CustomCSS, files[bundle.StyleFile])
	require.Contains(t, files[bundle.ReadmeFile], "14/03/2025 à 15:09")
	require.Contains(t, files, bundle.DeploymentFile)

	sites, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, sites)
}

func Test_Restore_When_TreeComplete_Then_Published(t *testing.T) {
	SUT, store, _ := setup(t)
	ctx := context.Background()
	tree := bundle.Tree{
		{Path: bundle.IndexFile, Data: []byte("<h1>restored</h1>")},
		{Path: bundle.MetadataFile, Data: []byte(`{"subdomain":"mon-blog","status":"active"}`)},
	}

	_, err := SUT.Restore(ctx, "mon-blog", tree)

	require.NoError(t, err)
	require.Equal(t, "<h1>restored</h1>", readIndex(t, store, "mon-blog"))
	meta, err := SUT.ReadMetadata(ctx, "mon-blog")
	require.NoError(t, err)
	require.Equal(t, "mon-blog", meta.Subdomain)
}

func Test_Restore_When_RecordMissing_Then_ValidationError(t *testing.T) {
	SUT, store, _ := setup(t)

	_, err := SUT.Restore(context.Background(), "mon-blog", bundle.Tree{{Path: bundle.IndexFile, Data: []byte("x")}})

	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)
	exists, err := store.Exists(context.Background(), "mon-blog")
	require.NoError(t, err)
	require.False(t, exists)
}
