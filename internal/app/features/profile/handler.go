// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxPhotoBytes caps profile photo uploads at 5 MB.
const maxPhotoBytes = 5 << 20

// Handler serves the member's own profile page.
type Handler struct {
	DB       *mongo.Database
	Users    *userstore.Store
	Creds    *credentialstore.Store
	Storage  storage.Store
	Sessions *auth.SessionManager
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, store storage.Store, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Users:    userstore.New(db),
		Creds:    credentialstore.New(db),
		Storage:  store,
		Sessions: sessions,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

type profilePageData struct {
	viewdata.BaseVM
	Profile *models.User
	Notice  string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/profil                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	h.renderProfile(w, r, "")
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, notice string) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profile, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile: load failed", err,
			"Profilen kunne ikke lastes. Prøv igjen.", "/medlem")
		return
	}

	templates.Render(w, r, "profile", profilePageData{
		BaseVM:  viewdata.NewBaseVM(r, h.DB, "Min profil", "/medlem"),
		Profile: profile,
		Notice:  notice,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/profil – update name and consents                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem/profil")
		return
	}

	name := r.FormValue("display_name")
	if name == "" {
		h.ErrLog.LogBadRequest(w, r, "profile: empty name", nil,
			"Visningsnavnet kan ikke være tomt.", "/medlem/profil")
		return
	}
	privacy := r.FormValue("privacy_consent") == "on"
	newsletter := r.FormValue("newsletter_consent") == "on"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		DisplayName:       &name,
		PrivacyConsent:    &privacy,
		NewsletterConsent: &newsletter,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile: update failed", err,
			"Endringene kunne ikke lagres. Prøv igjen.", "/medlem/profil")
		return
	}

	http.Redirect(w, r, "/medlem/profil", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/profil/bilde – photo upload                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile photo: bad multipart form", err,
			"Bildet kunne ikke leses. Er det under 5 MB?", "/medlem/profil")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile photo: missing file", err,
			"Velg et bilde å laste opp.", "/medlem/profil")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		h.ErrLog.LogBadRequest(w, r, "profile photo: unsupported type", nil,
			"Bare JPEG og PNG støttes.", "/medlem/profil")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	info, err := storage.UploadFile(ctx, h.Storage, "avatars", header.Filename, file, header.Size, contentType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile photo: storage put failed", err,
			"Bildet kunne ikke lagres. Prøv igjen.", "/medlem/profil")
		return
	}

	if err := h.Users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{PhotoURL: &info.URL}); err != nil {
		if derr := h.Storage.Delete(ctx, info.Path); derr != nil {
			h.Log.Warn("profile photo: orphan cleanup failed",
				zap.String("path", info.Path), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "profile photo: record update failed", err,
			"Bildet kunne ikke lagres. Prøv igjen.", "/medlem/profil")
		return
	}

	http.Redirect(w, r, "/medlem/profil", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/profil/slett – request account deletion                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDeletionRequest marks the account pending_deletion, disables the
// credential and ends the session. The record survives the grace period,
// so an admin can restore it until the daily sweep archives it.
func (h *Handler) HandleDeletionRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile deletion: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem/profil")
		return
	}
	if r.FormValue("confirm") != "SLETT" {
		h.ErrLog.LogBadRequest(w, r, "profile deletion: missing confirmation", nil,
			"Skriv SLETT i feltet for å bekrefte.", "/medlem/profil")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.RequestDeletion(ctx, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "profile deletion: request failed", err,
			"Forespørselen kunne ikke registreres. Prøv igjen.", "/medlem/profil")
		return
	}
	if err := h.Creds.SetDisabled(ctx, u.ID, true); err != nil {
		h.Log.Error("profile deletion: credential disable failed",
			zap.String("uid", u.ID), zap.Error(err))
	}

	h.Log.Info("account deletion requested", zap.String("uid", u.ID))
	h.Sessions.SignOut(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
