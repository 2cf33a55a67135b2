package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/storage"
	"github.com/Builder-Lawyers/hosting-backend/internal/testinfra"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMirror(t *testing.T) *storage.Mirror {
	t.Helper()
	cfg := &storage.MirrorConfig{Enabled: true, Bucket: "mirror-" + uuid.NewString()[:8], Prefix: "sites/"}
	s3 := storage.NewStorage(testinfra.AWS(t), cfg.Bucket)
	require.NoError(t, s3.CreateBucket(context.Background()))
	return storage.NewMirror(s3, cfg)
}

func writeBundle(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestSyncBundleThenFetchReturnsSameFiles(t *testing.T) {
	SUT := newMirror(t)
	ctx := context.Background()
	dir := writeBundle(t, map[string]string{
		"index.html":          "<html></html>",
		"assets/style.css":    ".a{}",
		".site_metadata.json": "{}",
	})

	require.NoError(t, SUT.SyncBundle(ctx, "mon-blog", dir))
	tree, err := SUT.FetchBundle(ctx, "mon-blog")
	require.NoError(t, err)

	require.Len(t, tree, 3)
	data, ok := tree.Lookup("assets/style.css")
	require.True(t, ok)
	require.Equal(t, ".a{}", string(data))
}

func TestSyncBundleDeletesFilesNoLongerInBundle(t *testing.T) {
	SUT := newMirror(t)
	ctx := context.Background()
	require.NoError(t, SUT.SyncBundle(ctx, "shop", writeBundle(t, map[string]string{
		"index.html":       "v1",
		"assets/script.js": "go()",
	})))

	require.NoError(t, SUT.SyncBundle(ctx, "shop", writeBundle(t, map[string]string{"index.html": "v2"})))

	tree, err := SUT.FetchBundle(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	data, _ := tree.Lookup("index.html")
	require.Equal(t, "v2", string(data))
}

func TestRemoveBundleLeavesOtherSubdomains(t *testing.T) {
	SUT := newMirror(t)
	ctx := context.Background()
	require.NoError(t, SUT.SyncBundle(ctx, "blog", writeBundle(t, map[string]string{"index.html": "a"})))
	require.NoError(t, SUT.SyncBundle(ctx, "blog-1", writeBundle(t, map[string]string{"index.html": "b"})))

	require.NoError(t, SUT.RemoveBundle(ctx, "blog"))

	_, err := SUT.FetchBundle(ctx, "blog")
	require.ErrorIs(t, err, storage.ErrNotMirrored)
	tree, err := SUT.FetchBundle(ctx, "blog-1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
}
