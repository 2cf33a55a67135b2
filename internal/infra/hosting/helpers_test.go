package hosting_test

import "github.com/Builder-Lawyers/hosting-backend/internal/infra/render"

func renderedHTML(html string) render.Rendered {
	return render.Rendered{HTML: html}
}
