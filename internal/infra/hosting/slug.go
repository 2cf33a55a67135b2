package hosting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxLabelLength = 63
	defaultSlug    = "site"
)

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidLabel reports whether name is a lowercase DNS label.
func ValidLabel(name string) bool {
	return labelPattern.MatchString(name)
}

// NormalizeSubdomain lowercases a user supplied subdomain and checks it is a DNS label.
func NormalizeSubdomain(requested string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(requested))
	if !ValidLabel(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubdomain, requested)
	}
	return name, nil
}

// Slugify turns a website name into a DNS label: "Été à Paris" becomes "ete-a-paris".
func Slugify(name string) string {
	// transformers keep state, one per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if len(slug) > MaxLabelLength {
		slug = strings.TrimRight(slug[:MaxLabelLength], "-")
	}
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// withSuffix appends -n to base, shortening base so the result stays a valid label.
func withSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLabelLength {
		base = strings.TrimRight(base[:MaxLabelLength-len(suffix)], "-")
	}
	return base + suffix
}
