// internal/app/features/gallery/views/views.go
package gallery

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "gallery",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
