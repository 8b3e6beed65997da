// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/leirefolket/leirefolket/internal/app/system/authz"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

// Handler renders the standalone error pages. No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Ingen tilgang",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Du har ikke tilgang til denne siden.",
		BackURL:    "/",
	}

	templates.Render(w, r, "error_page", data)
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Innlogging kreves",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Logg inn for å fortsette.",
		BackURL:    "/login",
	}

	templates.Render(w, r, "error_page", data)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	w.WriteHeader(http.StatusNotFound)
	data := pageData{
		Title:      "Siden finnes ikke",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Vi fant ikke siden du lette etter.",
		BackURL:    "/",
	}

	templates.Render(w, r, "error_page", data)
}
