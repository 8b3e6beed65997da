// internal/app/features/errors/routes.go
package errors

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the standalone error pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/forbidden", h.Forbidden)
	r.Get("/unauthorized", h.Unauthorized)
}
