package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/bundle"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
)

const listPageSize = 100

var ErrNotMirrored = errors.New("bundle is not mirrored")

// Mirror keeps a copy of every hosted bundle under <prefix><subdomain>/ in the bucket.
type Mirror struct {
	storage *Storage
	prefix  string
}

func NewMirror(storage *Storage, cfg *MirrorConfig) *Mirror {
	return &Mirror{storage: storage, prefix: cfg.Prefix}
}

func (m *Mirror) bundlePrefix(subdomain string) string {
	return path.Join(m.prefix, subdomain) + "/"
}

// SyncBundle uploads every file of dir and deletes mirrored keys the bundle no longer has.
func (m *Mirror) SyncBundle(ctx context.Context, subdomain, dir string) error {
	prefix := m.bundlePrefix(subdomain)
	uploaded := map[string]bool{}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("error reading %s: %v", p, err)
		}
		key := prefix + filepath.ToSlash(rel)
		if err := m.storage.UploadFile(ctx, key, hosting.ContentType(rel), data); err != nil {
			return err
		}
		uploaded[key] = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("err mirroring %s, %v", subdomain, err)
	}

	existing, err := m.storage.ListFiles(ctx, listPageSize, prefix)
	if err != nil {
		return err
	}
	var stale []string
	for _, key := range existing {
		if !uploaded[key] {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		slog.Info("deleting stale mirrored files", "subdomain", subdomain, "count", len(stale))
		return m.storage.DeleteFiles(ctx, stale)
	}
	return nil
}

func (m *Mirror) RemoveBundle(ctx context.Context, subdomain string) error {
	keys, err := m.storage.ListFiles(ctx, listPageSize, m.bundlePrefix(subdomain))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return m.storage.DeleteFiles(ctx, keys)
}

// FetchBundle downloads a mirrored bundle as a tree ready to be published again.
func (m *Mirror) FetchBundle(ctx context.Context, subdomain string) (bundle.Tree, error) {
	prefix := m.bundlePrefix(subdomain)
	keys, err := m.storage.ListFiles(ctx, listPageSize, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotMirrored, subdomain)
	}

	tree := make(bundle.Tree, 0, len(keys))
	for _, key := range keys {
		data, err := m.storage.GetFile(ctx, key)
		if err != nil {
			return nil, err
		}
		tree = append(tree, bundle.File{Path: strings.TrimPrefix(key, prefix), Data: data})
	}
	return tree, nil
}
