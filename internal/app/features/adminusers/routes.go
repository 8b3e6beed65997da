// internal/app/features/adminusers/routes.go
package adminusers

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/arkiv", h.ServeArchive)
	r.Post("/ny", h.HandleCreate)
	r.Post("/{uid}/rolle", h.HandleSetRole)
	r.Post("/{uid}/verv", h.HandleSetOrgRole)

	r.Post("/api/slett", h.HandleAPIPermanentDelete)
	r.Post("/api/gjenopprett", h.HandleAPIRestorePending)
	r.Post("/api/arkiv/gjenopprett", h.HandleAPIRestoreArchived)
	r.Post("/api/arkiv/slett", h.HandleAPIWipeArchiveRecord)
	r.Post("/api/arkiv/toem", h.HandleAPIWipeArchive)
	return r
}
