// internal/app/features/documents/routes.go
package documents

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeDocuments)
	r.Post("/", h.HandleUpload)
	r.Post("/{id}/slett", h.HandleDelete)
	return r
}
