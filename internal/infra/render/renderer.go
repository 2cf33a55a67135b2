package render

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
)

const (
	DefaultTitle       = "Mon Site Web"
	DefaultSubtitle    = "Bienvenue sur mon site"
	DefaultDescription = "Description de mon site web"
	DefaultAboutTitle  = "À propos"
	DefaultAbout       = "Contenu à propos..."
	ContactTitle       = "Contact"
	GeneratorNotice    = "Site web généré avec AI Website Generator"
	Generator          = "AI Website Generator - https://ai-webgen.com"
)

var ErrMissingName = errors.New("website has no name")

type Rendered struct {
	HTML string
	CSS  string
	JS   string
}

type Config struct {
	Now func() time.Time
}

type Renderer struct {
	now   func() time.Time
	shell *template.Template
}

type shellData struct {
	Title       string
	Description string
	Keywords    string
	Generator   string
	CustomCSS   string
	CustomJS    string
	Body        string
}

func NewRenderer(cfg Config) (*Renderer, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	shell, err := template.New("shell").Parse(shellSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shell template: %w", err)
	}
	return &Renderer{now: now, shell: shell}, nil
}

// Render produces the full page for a website. Custom CSS and JS are inlined verbatim and also
// returned separately so the packager can write them as assets.
func (r *Renderer) Render(site *entity.Website, category consts.Category) (Rendered, error) {
	if site == nil {
		return Rendered{}, ErrMissingName
	}

	body, err := skeleton(category)
	if err != nil {
		return Rendered{}, err
	}
	body = r.placeholders(site.Content).Replace(body)

	data := shellData{
		Title:       firstNonEmpty(site.MetaTitle, site.Name, DefaultTitle),
		Description: firstNonEmpty(site.MetaDescription, site.Description, GeneratorNotice),
		Keywords:    site.MetaKeywords,
		Generator:   Generator,
		CustomCSS:   site.CustomCSS,
		CustomJS:    site.CustomJS,
		Body:        body,
	}

	var buf bytes.Buffer
	if err := r.shell.Execute(&buf, data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render shell: %w", err)
	}

	return Rendered{
		HTML: buf.String(),
		CSS:  site.CustomCSS,
		JS:   site.CustomJS,
	}, nil
}

func (r *Renderer) placeholders(content entity.Content) *strings.Replacer {
	return strings.NewReplacer(
		"{{SITE_TITLE}}", firstNonEmpty(content.Field("hero", "title"), DefaultTitle),
		"{{SITE_SUBTITLE}}", firstNonEmpty(content.Field("hero", "subtitle"), DefaultSubtitle),
		"{{SITE_DESCRIPTION}}", firstNonEmpty(content.Field("hero", "description"), DefaultDescription),
		"{{ABOUT_TITLE}}", firstNonEmpty(content.Field("about", "title"), DefaultAboutTitle),
		"{{ABOUT_CONTENT}}", firstNonEmpty(content.Field("about", "content"), DefaultAbout),
		"{{CONTACT_TITLE}}", ContactTitle,
		"{{CURRENT_YEAR}}", strconv.Itoa(r.now().Year()),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
