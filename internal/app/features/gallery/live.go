// internal/app/features/gallery/live.go
package gallery

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/leirefolket/leirefolket/internal/app/live"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /galleri/live – live public gallery grid                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLive streams the gallery grid so curation shows up without a
// reload. The page is public, so each connection gets its own key: a
// shared key would make concurrent visitors cancel each other's
// subscriptions. The first paint comes from the server-rendered page,
// so the cached fragment is dropped when the connection ends instead of
// accumulating one entry per visit.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	key := "gallery:" + uuid.NewString()
	defer h.Cache.Drop(key)

	q := live.Query{
		Collection: "gallery",
		Filter:     bson.M{},
		Sort:       bson.D{{Key: "order", Value: 1}},
	}

	render := func(s live.Snapshot) (string, error) {
		if s.Err != nil {
			return `<div class="live-error">Direkteoppdatering falt ut. Last siden på nytt.</div>`, nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()
		images, err := h.Gallery.List(ctx)
		if err != nil {
			return "", err
		}
		return renderGalleryFragment(images)
	}

	live.ServeRegion(w, r, h.Binder, h.Cache, h.Log, key, q, render)
}

func renderGalleryFragment(images []models.GalleryImage) (string, error) {
	var sb strings.Builder
	if err := galleryFragmentTmpl.Execute(&sb, images); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (h *Handler) galleryFragmentHTML(ctx context.Context) (template.HTML, error) {
	images, err := h.Gallery.List(ctx)
	if err != nil {
		return "", err
	}
	fragment, err := renderGalleryFragment(images)
	if err != nil {
		return "", err
	}
	return template.HTML(fragment), nil
}

var galleryFragmentTmpl = template.Must(template.New("galleryFragment").Parse(`{{if .}}<div class="gallery-grid">
{{range .}}<figure>
  <img src="{{.URL}}" alt="{{.Title}}" loading="lazy">
  {{if .Title}}<figcaption>{{.Title}}</figcaption>{{end}}
</figure>
{{end}}</div>{{else}}<p>Ingen bilder ennå.</p>{{end}}`))
