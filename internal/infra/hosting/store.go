package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/bundle"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/google/uuid"
)

const (
	stagingDir = ".staging"
	trashDir   = ".trash"
	ClaimsDir  = ".claims"

	maxSuffix     = 9999
	retryInterval = 50 * time.Millisecond
)

type Metadata = entity.Deployment

type Store interface {
	IsAvailable(ctx context.Context, name string) (bool, error)
	Allocate(ctx context.Context, desired, fallbackBase string) (*Claim, error)
	Acquire(ctx context.Context, name string) (*Claim, error)
	Release(ctx context.Context, claim *Claim) error
	Exists(ctx context.Context, name string) (bool, error)
	Publish(ctx context.Context, claim *Claim, tree bundle.Tree) error
	Remove(ctx context.Context, claim *Claim) error
	ReadMetadata(ctx context.Context, name string) (*Metadata, error)
	WriteMetadata(ctx context.Context, claim *Claim, meta Metadata) error
	List(ctx context.Context) ([]Metadata, error)
	Resolve(name, requestPath string) (string, error)
}

// FSStore keeps one directory per subdomain under root. Bundles are built in .staging and
// renamed into place, replaced bundles go through .trash.
type FSStore struct {
	root      string
	claimer   Claimer
	claimWait time.Duration
	staleAge  time.Duration
}

var _ Store = (*FSStore)(nil)

func NewFSStore(cfg *config.HostingConfig, claimer Claimer) (*FSStore, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("err resolving hosting root, %v", err)
	}
	for _, dir := range []string{root, filepath.Join(root, stagingDir), filepath.Join(root, trashDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("err creating %s, %v", dir, err)
		}
	}
	return &FSStore{
		root:      root,
		claimer:   claimer,
		claimWait: cfg.ClaimWait,
		staleAge:  cfg.ClaimTTL,
	}, nil
}

func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) BundlePath(name string) string {
	return filepath.Join(s.root, name)
}

func (s *FSStore) bundleExists(name string) (bool, error) {
	info, err := os.Stat(s.BundlePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("err checking bundle %s, %v", name, err)
	}
	return info.IsDir(), nil
}

func (s *FSStore) Exists(_ context.Context, name string) (bool, error) {
	if !ValidLabel(name) {
		return false, nil
	}
	return s.bundleExists(name)
}

func (s *FSStore) IsAvailable(ctx context.Context, name string) (bool, error) {
	if !ValidLabel(name) {
		return false, fmt.Errorf("%w: %q", ErrInvalidSubdomain, name)
	}
	exists, err := s.bundleExists(name)
	if err != nil || exists {
		return false, err
	}
	held, err := s.claimer.Held(ctx, name)
	if err != nil {
		return false, err
	}
	return !held, nil
}

// Allocate claims desired when it is free, otherwise the slug of fallbackBase followed by -1, -2, ...
func (s *FSStore) Allocate(ctx context.Context, desired, fallbackBase string) (*Claim, error) {
	if desired != "" {
		name, err := NormalizeSubdomain(desired)
		if err != nil {
			return nil, err
		}
		claim, err := s.claimFree(ctx, name)
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, ErrClaimed) {
			return nil, err
		}
		slog.Info("requested subdomain taken, generating one", "requested", name)
	}

	base := Slugify(fallbackBase)
	for n := 0; n <= maxSuffix; n++ {
		candidate := base
		if n > 0 {
			candidate = withSuffix(base, n)
		}
		claim, err := s.claimFree(ctx, candidate)
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, ErrClaimed) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrExhausted, base)
}

// claimFree claims name only if no bundle exists for it, checking again once the claim is held.
func (s *FSStore) claimFree(ctx context.Context, name string) (*Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exists, err := s.bundleExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrClaimed
	}

	claim, err := s.claimer.TryClaim(ctx, name)
	if err != nil {
		return nil, err
	}

	exists, err = s.bundleExists(name)
	if err != nil || exists {
		if releaseErr := s.claimer.Release(ctx, claim); releaseErr != nil {
			slog.Error("err releasing claim", "subdomain", name, "err", releaseErr)
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrClaimed
	}
	return claim, nil
}

// Acquire claims an existing or new name, waiting up to the configured budget while someone else holds it.
func (s *FSStore) Acquire(ctx context.Context, name string) (*Claim, error) {
	if !ValidLabel(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSubdomain, name)
	}
	deadline := time.Now().Add(s.claimWait)
	for {
		claim, err := s.claimer.TryClaim(ctx, name)
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, ErrClaimed) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrBusy, name)
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *FSStore) Release(ctx context.Context, claim *Claim) error {
	if claim == nil {
		return nil
	}
	return s.claimer.Release(ctx, claim)
}

// Publish makes tree the bundle of the claimed subdomain. Readers see either the previous bundle
// or the complete new one.
func (s *FSStore) Publish(ctx context.Context, claim *Claim, tree bundle.Tree) error {
	if claim == nil {
		return errors.New("publish requires a claim")
	}
	staging := filepath.Join(s.root, stagingDir, uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("err creating staging dir, %v", err)
	}
	if err := writeTree(staging, tree); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.RemoveAll(staging)
		return err
	}

	target := s.BundlePath(claim.Name)
	exists, err := s.bundleExists(claim.Name)
	if err != nil {
		os.RemoveAll(staging)
		return err
	}

	var trash string
	if exists {
		trash = filepath.Join(s.root, trashDir, uuid.NewString())
		if err := os.Rename(target, trash); err != nil {
			os.RemoveAll(staging)
			return fmt.Errorf("err moving previous bundle aside, %v", err)
		}
	}

	if err := os.Rename(staging, target); err != nil {
		if trash != "" {
			if restoreErr := os.Rename(trash, target); restoreErr != nil {
				slog.Error("err restoring previous bundle", "subdomain", claim.Name, "err", restoreErr)
			}
		}
		os.RemoveAll(staging)
		return fmt.Errorf("err publishing bundle, %v", err)
	}

	if trash != "" {
		if err := os.RemoveAll(trash); err != nil {
			slog.Warn("err removing replaced bundle", "path", trash, "err", err)
		}
	}
	return nil
}

func (s *FSStore) Remove(_ context.Context, claim *Claim) error {
	if claim == nil {
		return errors.New("remove requires a claim")
	}
	exists, err := s.bundleExists(claim.Name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, claim.Name)
	}

	trash := filepath.Join(s.root, trashDir, uuid.NewString())
	if err := os.Rename(s.BundlePath(claim.Name), trash); err != nil {
		return fmt.Errorf("err removing bundle, %v", err)
	}
	if err := os.RemoveAll(trash); err != nil {
		slog.Warn("err deleting removed bundle", "path", trash, "err", err)
	}
	return nil
}

func (s *FSStore) ReadMetadata(_ context.Context, name string) (*Metadata, error) {
	if !ValidLabel(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(s.BundlePath(name), bundle.MetadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("err reading metadata of %s, %v", name, err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("err decoding metadata of %s, %v", name, err)
	}
	return &meta, nil
}

func (s *FSStore) WriteMetadata(_ context.Context, claim *Claim, meta Metadata) error {
	if claim == nil {
		return errors.New("metadata write requires a claim")
	}
	exists, err := s.bundleExists(claim.Name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, claim.Name)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("err marshalling metadata, %v", err)
	}
	return atomicWriteFile(filepath.Join(s.BundlePath(claim.Name), bundle.MetadataFile), data, 0o644)
}

// List returns the metadata of every readable bundle ordered by subdomain.
func (s *FSStore) List(ctx context.Context) ([]Metadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("err listing hosting root, %v", err)
	}

	sites := make([]Metadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		meta, err := s.ReadMetadata(ctx, entry.Name())
		if err != nil {
			slog.Debug("skipping unreadable bundle", "subdomain", entry.Name(), "err", err)
			continue
		}
		sites = append(sites, *meta)
	}
	return sites, nil
}

// Resolve maps a request path to a file inside the bundle of name. Dotfiles, directories and
// anything resolving outside the bundle are reported as ErrNotFound.
func (s *FSStore) Resolve(name, requestPath string) (string, error) {
	if !ValidLabel(name) {
		return "", ErrNotFound
	}
	rel := strings.TrimPrefix(requestPath, "/")
	if rel == "" {
		rel = bundle.IndexFile
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == "" || strings.HasPrefix(segment, ".") || strings.Contains(segment, "\\") {
			return "", ErrNotFound
		}
	}

	root, err := filepath.EvalSymlinks(s.BundlePath(name))
	if err != nil {
		return "", ErrNotFound
	}
	full, err := filepath.EvalSymlinks(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", ErrNotFound
	}
	inside, err := filepath.Rel(root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return full, nil
}

// Sweep deletes staging and trash leftovers of interrupted operations, then abandoned claims.
func (s *FSStore) Sweep(ctx context.Context) error {
	for _, dir := range []string{stagingDir, trashDir} {
		entries, err := os.ReadDir(filepath.Join(s.root, dir))
		if err != nil {
			return fmt.Errorf("err reading %s, %v", dir, err)
		}
		for _, entry := range entries {
			path := filepath.Join(s.root, dir, entry.Name())
			info, err := entry.Info()
			if err != nil || time.Since(info.ModTime()) < s.staleAge {
				continue
			}
			slog.Info("sweeping leftover", "path", path)
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("err removing %s, %v", path, err)
			}
		}
	}

	if sweeper, ok := s.claimer.(interface{ Sweep(context.Context) error }); ok {
		return sweeper.Sweep(ctx)
	}
	return nil
}
