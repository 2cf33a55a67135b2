package hosting_test

import (
	"strings"
	"testing"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Mon Blog":         "mon-blog",
		"  Été à Paris!  ": "ete-a-paris",
		"Café -- Crème":    "cafe-creme",
		"100% Bio":         "100-bio",
		"":                 "site",
		"!!!":              "site",
		"日本語":              "site",
		"Déjà_vu.v2":       "deja-vu-v2",
	}
	for input, want := range cases {
		require.Equal(t, want, hosting.Slugify(input), "input %q", input)
	}
}

func TestSlugifyTruncatesToLabelLength(t *testing.T) {
	require.Equal(t, strings.Repeat("a", 63), hosting.Slugify(strings.Repeat("a", 70)))
}

func TestSlugifyTruncationDoesNotEndWithDash(t *testing.T) {
	name := strings.Repeat("a", 62) + " b"

	slug := hosting.Slugify(name)

	require.Equal(t, strings.Repeat("a", 62), slug)
	require.True(t, hosting.ValidLabel(slug))
}

func TestNormalizeSubdomain(t *testing.T) {
	name, err := hosting.NormalizeSubdomain("  My-Site ")
	require.NoError(t, err)
	require.Equal(t, "my-site", name)

	for _, bad := range []string{"", "-lead", "trail-", "has space", "dot.ted", "../etc", strings.Repeat("x", 64)} {
		_, err := hosting.NormalizeSubdomain(bad)
		require.ErrorIs(t, err, hosting.ErrInvalidSubdomain, "input %q", bad)
	}
}
