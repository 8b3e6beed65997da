// internal/app/features/contact/handler.go
package contact

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	settingsstore "github.com/leirefolket/leirefolket/internal/app/store/settings"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxMessageLen keeps the contact form from becoming a spam relay for
// arbitrarily large bodies.
const maxMessageLen = 5000

// Handler serves the public contact page and forwards messages to the
// board's contact address.
type Handler struct {
	DB       *mongo.Database
	Settings *settingsstore.Store
	Mail     *mailer.Mailer
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger

	sanitize *bluemonday.Policy
}

func NewHandler(db *mongo.Database, mail *mailer.Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Settings: settingsstore.New(db),
		Mail:     mail,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
		sanitize: bluemonday.StrictPolicy(),
	}
}

type contactFormData struct {
	viewdata.BaseVM
	Name    string
	Email   string
	Message string
	Error   string
	Sent    bool
}

// GET /kontakt
func (h *Handler) ServeContact(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "contact", contactFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Kontakt", "/"),
	})
}

// POST /kontakt
func (h *Handler) HandleContactPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "contact: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/kontakt")
		return
	}

	name := h.sanitize.Sanitize(r.FormValue("name"))
	email := r.FormValue("email")
	message := h.sanitize.Sanitize(r.FormValue("message"))

	renderError := func(msg string) {
		templates.Render(w, r, "contact", contactFormData{
			BaseVM:  viewdata.NewBaseVM(r, h.DB, "Kontakt", "/"),
			Name:    name,
			Email:   email,
			Message: message,
			Error:   msg,
		})
	}

	if name == "" || message == "" {
		renderError("Fyll inn navn og melding.")
		return
	}
	if len(message) > maxMessageLen {
		renderError("Meldingen er for lang.")
		return
	}
	if err := authutil.ValidateEmail(email); err != nil {
		renderError("Skriv inn en gyldig e-postadresse, så vi kan svare deg.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil || settings.ContactEmail == "" {
		h.ErrLog.LogServerError(w, r, "contact: no contact address configured", err,
			"Kontaktskjemaet er ikke tilgjengelig akkurat nå. Prøv igjen senere.", "/")
		return
	}

	msg := mailer.Email{
		To:      settings.ContactEmail,
		Subject: "Melding fra kontaktskjemaet: " + name,
		TextBody: "Fra: " + name + " <" + email + ">\n\n" +
			message + "\n",
	}
	if err := h.Mail.Send(msg); err != nil {
		h.ErrLog.LogServerError(w, r, "contact: send failed", err,
			"Meldingen kunne ikke sendes. Prøv igjen senere.", "/kontakt")
		return
	}

	h.Log.Info("contact message forwarded", zap.String("from", email))
	templates.Render(w, r, "contact", contactFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Kontakt", "/"),
		Sent:   true,
	})
}
