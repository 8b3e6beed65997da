// internal/app/features/personvern/views/views.go
package personvern

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "personvern",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
