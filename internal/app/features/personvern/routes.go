// internal/app/features/personvern/routes.go
package personvern

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePrivacy)
	return r
}
