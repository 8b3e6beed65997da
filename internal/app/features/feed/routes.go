// internal/app/features/feed/routes.go
package feed

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeFeed)
	r.Get("/live/feed", h.ServeLive)
	r.Post("/innlegg", h.HandleCreatePost)
	r.Post("/innlegg/{id}/slett", h.HandleDeletePost)
	r.Post("/innlegg/{id}/liker", h.HandleToggleLike)
	r.Post("/innlegg/{id}/kommentar", h.HandleAddComment)
	r.Post("/kommentar/{id}/slett", h.HandleDeleteComment)
	return r
}
