// internal/app/features/adminusers/handler.go
package adminusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/leirefolket/leirefolket/internal/app/accounts"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	archivestore "github.com/leirefolket/leirefolket/internal/app/store/archive"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin member register: the user list, the archive,
// and the account-management API.
type Handler struct {
	DB       *mongo.Database
	Users    *userstore.Store
	Creds    *credentialstore.Store
	Archive  *archivestore.Store
	Accounts *accounts.Service
	Mail     *mailer.Mailer
	BaseURL  string
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, svc *accounts.Service, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Users:    userstore.New(db),
		Creds:    credentialstore.New(db),
		Archive:  archivestore.New(db),
		Accounts: svc,
		Mail:     mail,
		BaseURL:  baseURL,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/brukere – member register                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers: list failed", err,
			"Medlemslisten kunne ikke lastes. Prøv igjen.", "/medlem")
		return
	}

	data := struct {
		viewdata.BaseVM
		Users []models.User
		Roles []string
	}{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Brukere", "/medlem"),
		Users:  users,
		Roles:  []string{"member", "contributor", "admin"},
	}
	templates.Render(w, r, "adminusers", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/brukere/arkiv – archived memberships                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Archive.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers: archive list failed", err,
			"Arkivet kunne ikke lastes. Prøv igjen.", "/admin/brukere")
		return
	}

	data := struct {
		viewdata.BaseVM
		Records []models.ArchiveRecord
	}{
		BaseVM:  viewdata.NewBaseVM(r, h.DB, "Arkiv", "/admin/brukere"),
		Records: records,
	}
	templates.Render(w, r, "adminusers_archive", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/ny – create an account with a temporary password        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "adminusers create: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/admin/brukere")
		return
	}

	email := r.FormValue("email")
	name := r.FormValue("display_name")
	role := models.ParseRole(r.FormValue("role"))

	if err := authutil.ValidateEmail(email); err != nil {
		h.ErrLog.LogBadRequest(w, r, "adminusers create: bad email", err,
			"Ugyldig e-postadresse.", "/admin/brukere")
		return
	}

	tempPW := authutil.TempPassword()
	hash, err := authutil.HashPassword(tempPW)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers create: hash failed", err,
			"Kontoen kunne ikke opprettes. Prøv igjen.", "/admin/brukere")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cred, err := h.Creds.Create(ctx, email, hash, true)
	if err == credentialstore.ErrDuplicateEmail {
		h.ErrLog.LogBadRequest(w, r, "adminusers create: duplicate email", err,
			"Det finnes allerede en konto med denne e-postadressen.", "/admin/brukere")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers create: credential insert failed", err,
			"Kontoen kunne ikke opprettes. Prøv igjen.", "/admin/brukere")
		return
	}

	if err := h.Users.EnsureProfile(ctx, cred.UID(), email, name, role); err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers create: profile insert failed", err,
			"Kontoen kunne ikke opprettes. Prøv igjen.", "/admin/brukere")
		return
	}

	if h.Mail != nil {
		msg := mailer.BuildResetEmail(mailer.ResetEmailData{
			SiteName:     models.DefaultSiteName,
			Name:         name,
			TempPassword: tempPW,
			LoginURL:     h.BaseURL + "/login",
		})
		msg.To = email
		if err := h.Mail.Send(msg); err != nil {
			h.Log.Warn("adminusers create: welcome email failed",
				zap.String("to", email), zap.Error(err))
		}
	}

	h.Log.Info("account created by admin",
		zap.String("uid", cred.UID()), zap.String("role", string(role)))
	http.Redirect(w, r, "/admin/brukere", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/{uid}/rolle  and  /{uid}/verv                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	role := r.FormValue("role")
	if !models.IsValidRole(role) {
		h.ErrLog.LogBadRequest(w, r, "adminusers: bad role", nil,
			"Ugyldig rolle.", "/admin/brukere")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdateRole(ctx, uid, models.Role(role)); err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers: role update failed", err,
			"Rollen kunne ikke endres.", "/admin/brukere")
		return
	}

	h.Log.Info("role updated", zap.String("uid", uid), zap.String("role", role))
	http.Redirect(w, r, "/admin/brukere", http.StatusSeeOther)
}

func (h *Handler) HandleSetOrgRole(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdateOrgRole(ctx, uid, r.FormValue("org_role")); err != nil {
		h.ErrLog.LogServerError(w, r, "adminusers: org role update failed", err,
			"Vervet kunne ikke endres.", "/admin/brukere")
		return
	}

	http.Redirect(w, r, "/admin/brukere", http.StatusSeeOther)
}
