// internal/app/features/gallery/routes.go
package gallery

import "github.com/go-chi/chi/v5"

// Routes serves the public gallery.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeGallery)
	r.Get("/live", h.ServeLive)
	return r
}

// AdminRoutes serves gallery management. The caller mounts these behind the
// admin role check.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeManage)
	r.Post("/", h.HandleUpload)
	r.Post("/{id}/rekkefolge", h.HandleReorder)
	r.Post("/{id}/slett", h.HandleDelete)
	return r
}
