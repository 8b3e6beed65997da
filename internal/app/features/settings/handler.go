// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	settingsstore "github.com/leirefolket/leirefolket/internal/app/store/settings"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxLogoBytes caps logo uploads at 2 MB.
const maxLogoBytes = 2 << 20

// Handler serves the admin site-settings page.
type Handler struct {
	DB       *mongo.Database
	Settings *settingsstore.Store
	Storage  storage.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger

	// footerPolicy allows basic formatting and links in the footer but
	// nothing that can run script.
	footerPolicy *bluemonday.Policy
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Settings:     settingsstore.New(db),
		Storage:      store,
		Log:          logger,
		ErrLog:       uierrors.NewErrorLogger(logger),
		footerPolicy: bluemonday.UGCPolicy(),
	}
}

type settingsPageData struct {
	viewdata.BaseVM
	Settings models.SiteSettings
	LogoURL  string
	Saved    bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/innstillinger                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, false)
}

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, saved bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: load failed", err,
			"Innstillingene kunne ikke lastes. Prøv igjen.", "/medlem")
		return
	}

	logoURL := ""
	if settings.LogoPath != "" {
		logoURL = h.Storage.URL(settings.LogoPath)
	}

	templates.Render(w, r, "settings", settingsPageData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, "Innstillinger", "/medlem"),
		Settings: settings,
		LogoURL:  logoURL,
		Saved:    saved,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/innstillinger                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "settings: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/admin/innstillinger")
		return
	}

	siteName := r.FormValue("site_name")
	if siteName == "" {
		siteName = models.DefaultSiteName
	}
	contactEmail := r.FormValue("contact_email")
	if contactEmail != "" {
		if err := authutil.ValidateEmail(contactEmail); err != nil {
			h.ErrLog.LogBadRequest(w, r, "settings: bad contact email", err,
				"Ugyldig kontakt-e-postadresse.", "/admin/innstillinger")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: load failed", err,
			"Innstillingene kunne ikke lagres. Prøv igjen.", "/admin/innstillinger")
		return
	}

	current.SiteName = siteName
	current.ContactEmail = contactEmail
	current.FooterHTML = h.footerPolicy.Sanitize(r.FormValue("footer_html"))
	current.UpdatedByID = u.ID
	current.UpdatedByName = u.Name

	if err := h.Settings.Save(ctx, current); err != nil {
		h.ErrLog.LogServerError(w, r, "settings: save failed", err,
			"Innstillingene kunne ikke lagres. Prøv igjen.", "/admin/innstillinger")
		return
	}

	h.Log.Info("site settings updated", zap.String("by", u.ID))
	h.renderSettings(w, r, true)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/innstillinger/logo                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogoUpload(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "settings logo: bad multipart form", err,
			"Logoen kunne ikke leses. Er den under 2 MB?", "/admin/innstillinger")
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "settings logo: missing file", err,
			"Velg en logofil å laste opp.", "/admin/innstillinger")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/svg+xml" && contentType != "image/jpeg" {
		h.ErrLog.LogBadRequest(w, r, "settings logo: unsupported type", nil,
			"Bare PNG, JPEG og SVG støttes.", "/admin/innstillinger")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	info, err := storage.UploadFile(ctx, h.Storage, "branding", header.Filename, file, header.Size, contentType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings logo: storage put failed", err,
			"Logoen kunne ikke lagres. Prøv igjen.", "/admin/innstillinger")
		return
	}

	current, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings logo: load failed", err,
			"Logoen kunne ikke lagres. Prøv igjen.", "/admin/innstillinger")
		return
	}

	oldPath := current.LogoPath
	current.LogoPath = info.Path
	current.UpdatedByID = u.ID
	current.UpdatedByName = u.Name

	if err := h.Settings.Save(ctx, current); err != nil {
		if derr := h.Storage.Delete(ctx, info.Path); derr != nil {
			h.Log.Warn("settings logo: orphan cleanup failed",
				zap.String("path", info.Path), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "settings logo: save failed", err,
			"Logoen kunne ikke lagres. Prøv igjen.", "/admin/innstillinger")
		return
	}

	if oldPath != "" && oldPath != info.Path {
		if err := h.Storage.Delete(ctx, oldPath); err != nil {
			h.Log.Warn("settings logo: old logo delete failed",
				zap.String("path", oldPath), zap.Error(err))
		}
	}

	http.Redirect(w, r, "/admin/innstillinger", http.StatusSeeOther)
}
