package render

import (
	"embed"
	"fmt"

	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
)

//go:embed templates/*.html
var skeletons embed.FS

//go:embed templates/shell.html.tmpl
var shellSource string

// skeleton returns the page body for a category, business when the category is unknown.
func skeleton(category consts.Category) (string, error) {
	if !category.Valid() {
		category = consts.CategoryBusiness
	}
	content, err := skeletons.ReadFile(fmt.Sprintf("templates/%s.html", category))
	if err != nil {
		return "", fmt.Errorf("skeleton not found: %s", category)
	}
	return string(content), nil
}
