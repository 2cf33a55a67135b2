package hosting_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/stretchr/testify/require"
)

func ageDir(t *testing.T, path string) {
	t.Helper()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestDirClaimerBreaksStaleClaimForExactlyOneClaimer(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 50; round++ {
		dir := t.TempDir()
		SUT, err := hosting.NewDirClaimer(dir, time.Minute)
		require.NoError(t, err)
		ageDir(t, filepath.Join(dir, "mon-blog"))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []*hosting.Claim
			errs    []error
		)
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				claim, err := SUT.TryClaim(ctx, "mon-blog")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				winners = append(winners, claim)
			}()
		}
		close(start)
		wg.Wait()

		require.Len(t, winners, 1, "round %d", round)
		for _, err := range errs {
			require.ErrorIs(t, err, hosting.ErrClaimed)
		}
		token, err := os.ReadFile(filepath.Join(dir, "mon-blog", "token"))
		require.NoError(t, err)
		require.Equal(t, winners[0].Token, string(token))
		_, err = os.Stat(filepath.Join(dir, "mon-blog.break"))
		require.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestDirClaimerDoesNotBreakFreshClaim(t *testing.T) {
	ctx := context.Background()
	SUT, err := hosting.NewDirClaimer(t.TempDir(), time.Minute)
	require.NoError(t, err)
	held, err := SUT.TryClaim(ctx, "mon-blog")
	require.NoError(t, err)

	_, err = SUT.TryClaim(ctx, "mon-blog")

	require.ErrorIs(t, err, hosting.ErrClaimed)
	ok, err := SUT.Held(ctx, "mon-blog")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, SUT.Release(ctx, held))
}

func TestDirClaimerRecoversFromAbandonedBreaker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	SUT, err := hosting.NewDirClaimer(dir, time.Minute)
	require.NoError(t, err)
	ageDir(t, filepath.Join(dir, "mon-blog"))
	ageDir(t, filepath.Join(dir, "mon-blog.break"))

	_, err = SUT.TryClaim(ctx, "mon-blog")
	require.ErrorIs(t, err, hosting.ErrClaimed)

	claim, err := SUT.TryClaim(ctx, "mon-blog")
	require.NoError(t, err)
	require.Equal(t, "mon-blog", claim.Name)
}
