package dashboard

import (
	"embed"
	"io"
	"io/fs"

	template "github.com/goliatone/go-template"
)

// TrayTemplate is the default page template; it includes partials/picker.html.
const TrayTemplate = "dashboard"

// Renderer turns a TrayPage into HTML.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

//go:embed templates/*.html templates/partials/*.html
var trayTemplates embed.FS

// NewTemplateRenderer renders the embedded tray and picker templates with go-template.
// Templates resolve against the embedded tree only, never the working directory.
func NewTemplateRenderer() (Renderer, error) {
	root, err := fs.Sub(trayTemplates, "templates")
	if err != nil {
		return nil, err
	}
	return template.NewRenderer(
		template.WithFS(root),
		template.WithExtension(".html"),
	)
}
