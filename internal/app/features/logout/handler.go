// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler signs users out.
type Handler struct {
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

func NewHandler(sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// ServeLogout handles POST /logout. Logout is a POST so a prefetched link
// can never end a session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	h.Sessions.SignOut(w, r)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
