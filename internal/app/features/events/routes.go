// internal/app/features/events/routes.go
package events

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeEvents)
	r.Get("/live", h.ServeLiveList)
	r.Get("/live/{id}", h.ServeLive)
	r.Post("/", h.HandleCreate)
	r.Post("/{id}/endre", h.HandleUpdate)
	r.Post("/{id}/slett", h.HandleDelete)
	r.Post("/{id}/svar", h.HandleRSVP)
	return r
}
