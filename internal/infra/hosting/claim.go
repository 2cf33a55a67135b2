package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Claim is an exclusive hold on one subdomain. Every write to a bundle happens under a claim.
type Claim struct {
	Name       string
	Token      string
	AcquiredAt time.Time
}

type Claimer interface {
	// TryClaim returns ErrClaimed when another holder owns name.
	TryClaim(ctx context.Context, name string) (*Claim, error)
	Release(ctx context.Context, claim *Claim) error
	Held(ctx context.Context, name string) (bool, error)
}

const (
	tokenFile = "token"
	// breakerSuffix can't clash with a claim since subdomain labels never contain dots.
	breakerSuffix = ".break"
)

// DirClaimer claims a name by creating <dir>/<name> exclusively. Claims older than ttl are
// considered abandoned and may be broken.
type DirClaimer struct {
	dir string
	ttl time.Duration
}

var _ Claimer = (*DirClaimer)(nil)

func NewDirClaimer(dir string, ttl time.Duration) (*DirClaimer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("err creating claims dir, %v", err)
	}
	return &DirClaimer{dir: dir, ttl: ttl}, nil
}

func (d *DirClaimer) TryClaim(ctx context.Context, name string) (*Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(d.dir, name)

	err := os.Mkdir(path, 0o755)
	if errors.Is(err, os.ErrExist) && d.stale(path) {
		err = d.breakStale(name, path)
	}
	if errors.Is(err, os.ErrExist) {
		return nil, ErrClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("err creating claim, %v", err)
	}

	claim := &Claim{Name: name, Token: uuid.NewString(), AcquiredAt: time.Now()}
	if err := os.WriteFile(filepath.Join(path, tokenFile), []byte(claim.Token), 0o644); err != nil {
		os.RemoveAll(path)
		return nil, fmt.Errorf("err writing claim token, %v", err)
	}
	return claim, nil
}

// breakStale replaces an abandoned claim with a fresh one. Only the holder of the breaker dir may
// remove the old claim, and it checks staleness again once it holds it, so a claim taken over in
// between is never deleted. Returns os.ErrExist when another claimer wins.
func (d *DirClaimer) breakStale(name, path string) error {
	breaker := path + breakerSuffix
	if err := os.Mkdir(breaker, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) && d.stale(breaker) {
			// a claimer died while breaking, let the next attempt go through
			_ = os.Remove(breaker)
		}
		return os.ErrExist
	}
	defer os.Remove(breaker)

	if !d.stale(path) {
		return os.ErrExist
	}
	slog.Warn("breaking stale claim", "subdomain", name)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("err removing stale claim, %v", err)
	}
	return os.Mkdir(path, 0o755)
}

// Release removes the claim only while it still carries this holder's token.
func (d *DirClaimer) Release(_ context.Context, claim *Claim) error {
	path := filepath.Join(d.dir, claim.Name)
	token, err := os.ReadFile(filepath.Join(path, tokenFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("err reading claim token, %v", err)
	}
	if string(token) != claim.Token {
		slog.Warn("claim was taken over, not releasing", "subdomain", claim.Name)
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("err releasing claim, %v", err)
	}
	return nil
}

func (d *DirClaimer) Held(_ context.Context, name string) (bool, error) {
	path := filepath.Join(d.dir, name)
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("err checking claim, %v", err)
	}
	return !d.stale(path), nil
}

// Sweep removes every abandoned claim.
func (d *DirClaimer) Sweep(_ context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("err reading claims dir, %v", err)
	}
	for _, entry := range entries {
		path := filepath.Join(d.dir, entry.Name())
		if !d.stale(path) {
			continue
		}
		slog.Info("sweeping stale claim", "subdomain", entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("err removing stale claim %s, %v", entry.Name(), err)
		}
	}
	return nil
}

func (d *DirClaimer) stale(path string) bool {
	if d.ttl <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > d.ttl
}
