// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	r.Get("/nytt-passord", h.ServeChangePassword)
	r.Post("/nytt-passord", h.HandleChangePasswordPost)
	r.Get("/glemt-passord", h.ServeForgot)
	r.Post("/glemt-passord", h.HandleForgotPost)
	r.Get("/nullstill", h.ServeReset)
	r.Post("/nullstill", h.HandleResetPost)
	return r
}
