// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	"github.com/leirefolket/leirefolket/internal/app/store/resettokens"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/guard"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/app/system/status"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Session keys used during the forced password-change flow. The user has
// proven the temporary password but is not signed in until the new password
// is saved.
const (
	pendingUserKey   = "pending_user_id"
	pendingReturnKey = "pending_return_url"
)

const memberHome = "/medlem"

// Handler owns the sign-in, password-change, and password-reset pages.
type Handler struct {
	DB       *mongo.Database
	Sessions *auth.SessionManager
	Creds    *credentialstore.Store
	Users    *userstore.Store
	Resets   *resettokens.Store
	Mail     *mailer.Mailer
	BaseURL  string
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, sessions *auth.SessionManager, creds *credentialstore.Store, users *userstore.Store, resets *resettokens.Store, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Sessions: sessions,
		Creds:    creds,
		Users:    users,
		Resets:   resets,
		Mail:     mail,
		BaseURL:  baseURL,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| view models                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Email     string
	ReturnURL string
	Error     string
	Notice    string
}

type changePasswordFormData struct {
	viewdata.BaseVM
	PasswordRules string
	Error         string
}

type forgotFormData struct {
	viewdata.BaseVM
	Email string
	Error string
}

type resetFormData struct {
	viewdata.BaseVM
	Token         string
	PasswordRules string
	Error         string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login – sign-in form                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	// The guard's notion of signed-in decides the redirect, not the bare
	// presence of a context user. An account pending deletion still has a
	// session cookie, and bouncing it to the member area would just send
	// it straight back here.
	u, _ := auth.CurrentUser(r)
	if d := guard.Decide(guard.LoginPage, u); !d.Allow {
		http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "Logg inn", "/"),
		ReturnURL: r.URL.Query().Get("return"),
	})
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, email, returnURL, msg string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "Logg inn", "/"),
		Email:     email,
		ReturnURL: returnURL,
		Error:     msg,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login – verify credentials                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/login")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	if email == "" || password == "" {
		h.renderLoginError(w, r, email, returnURL, "Fyll inn både e-post og passord.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cred, err := h.Creds.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Same message as a wrong password so the form does not reveal
			// which addresses have accounts.
			h.renderLoginError(w, r, email, returnURL, "Feil e-post eller passord.")
			return
		}
		h.ErrLog.LogServerError(w, r, "login: credential lookup failed", err,
			"Noe gikk galt under innloggingen. Prøv igjen.", "/login")
		return
	}

	if !authutil.CheckPassword(password, cred.PasswordHash) {
		h.renderLoginError(w, r, email, returnURL, "Feil e-post eller passord.")
		return
	}

	if cred.Disabled {
		h.renderLoginError(w, r, email, returnURL,
			"Kontoen er deaktivert. Ta kontakt med styret hvis du mener dette er feil.")
		return
	}

	// A profile waiting out the deletion grace period does not get back in
	// by signing in; restore is an admin operation.
	if u, err := h.Users.GetByID(ctx, cred.UID()); err == nil && u.Status == status.PendingDeletion {
		h.renderLoginError(w, r, email, returnURL,
			"Kontoen er meldt til sletting og kan ikke brukes. Ta kontakt med styret for å angre.")
		return
	}

	if cred.PasswordTemp {
		h.startPasswordChange(w, r, cred.UID(), returnURL)
		return
	}

	h.finishLogin(w, r, cred.UID(), cred.Email, returnURL)
}

// finishLogin makes sure a role/profile record exists, writes the session
// cookie, and sends the user on. Profile creation failure aborts the login:
// a session without a resolvable profile would bounce on the next request
// anyway.
func (h *Handler) finishLogin(w http.ResponseWriter, r *http.Request, uid, email, returnURL string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.EnsureProfile(ctx, uid, email, "", models.RoleMember); err != nil {
		h.ErrLog.LogServerError(w, r, "login: ensure profile failed", err,
			"Kontoen din kunne ikke klargjøres. Prøv igjen senere.", "/login")
		return
	}

	if err := h.Sessions.SignIn(w, r, uid); err != nil {
		h.ErrLog.LogServerError(w, r, "login: session save failed", err,
			"Innloggingen kunne ikke fullføres. Prøv igjen.", "/login")
		return
	}

	h.Log.Info("user signed in", zap.String("user_id", uid))
	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", memberHome), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Forced password change (temporary password)                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) startPasswordChange(w http.ResponseWriter, r *http.Request, uid, returnURL string) {
	sess, err := h.Sessions.GetSession(r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: session read failed", err,
			"Noe gikk galt. Prøv igjen.", "/login")
		return
	}
	sess.Values[pendingUserKey] = uid
	sess.Values[pendingReturnKey] = returnURL
	if err := sess.Save(r, w); err != nil {
		h.ErrLog.LogServerError(w, r, "login: session save failed", err,
			"Noe gikk galt. Prøv igjen.", "/login")
		return
	}
	http.Redirect(w, r, "/login/nytt-passord", http.StatusSeeOther)
}

// pendingUser returns the UID parked in the session by startPasswordChange,
// or "" when the flow was never started.
func (h *Handler) pendingUser(r *http.Request) (uid, returnURL string) {
	sess, err := h.Sessions.GetSession(r)
	if err != nil {
		return "", ""
	}
	uid, _ = sess.Values[pendingUserKey].(string)
	returnURL, _ = sess.Values[pendingReturnKey].(string)
	return uid, returnURL
}

// GET /login/nytt-passord
func (h *Handler) ServeChangePassword(w http.ResponseWriter, r *http.Request) {
	if uid, _ := h.pendingUser(r); uid == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login_change_password", changePasswordFormData{
		BaseVM:        viewdata.NewBaseVM(r, h.DB, "Velg nytt passord", "/login"),
		PasswordRules: authutil.PasswordRules(),
	})
}

// POST /login/nytt-passord
func (h *Handler) HandleChangePasswordPost(w http.ResponseWriter, r *http.Request) {
	uid, returnURL := h.pendingUser(r)
	if uid == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "change password: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/login")
		return
	}

	renderError := func(msg string) {
		templates.Render(w, r, "login_change_password", changePasswordFormData{
			BaseVM:        viewdata.NewBaseVM(r, h.DB, "Velg nytt passord", "/login"),
			PasswordRules: authutil.PasswordRules(),
			Error:         msg,
		})
	}

	password := r.FormValue("password")
	confirm := r.FormValue("confirm")
	if password != confirm {
		renderError("Passordene er ikke like.")
		return
	}
	if err := authutil.ValidatePassword(password); err != nil {
		renderError(passwordErrorMessage(err))
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "change password: hash failed", err,
			"Passordet kunne ikke lagres. Prøv igjen.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Creds.UpdatePassword(ctx, uid, hash, false); err != nil {
		h.ErrLog.LogServerError(w, r, "change password: update failed", err,
			"Passordet kunne ikke lagres. Prøv igjen.", "/login")
		return
	}

	cred, err := h.Creds.GetByUID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "change password: credential lookup failed", err,
			"Noe gikk galt. Logg inn på nytt.", "/login")
		return
	}

	h.clearPending(w, r)
	h.finishLogin(w, r, uid, cred.Email, returnURL)
}

func (h *Handler) clearPending(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.GetSession(r)
	if err != nil {
		return
	}
	delete(sess.Values, pendingUserKey)
	delete(sess.Values, pendingReturnKey)
	_ = sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Forgot password (self-service reset link)                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// GET /login/glemt-passord
func (h *Handler) ServeForgot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login_forgot", forgotFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Glemt passord", "/login"),
	})
}

// POST /login/glemt-passord
//
// Always answers with the "sent" page. Whether the address has an account,
// is rate limited, or fails to mail is visible only in the logs.
func (h *Handler) HandleForgotPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "forgot password: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/login")
		return
	}

	email := r.FormValue("email")
	if err := authutil.ValidateEmail(email); err != nil {
		templates.Render(w, r, "login_forgot", forgotFormData{
			BaseVM: viewdata.NewBaseVM(r, h.DB, "Glemt passord", "/login"),
			Email:  email,
			Error:  "Skriv inn en gyldig e-postadresse.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.sendResetLink(ctx, email)

	templates.Render(w, r, "login_forgot_sent", forgotFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "E-post sendt", "/login"),
		Email:  email,
	})
}

func (h *Handler) sendResetLink(ctx context.Context, email string) {
	cred, err := h.Creds.GetByEmail(ctx, email)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("forgot password: credential lookup failed", zap.Error(err))
		}
		return
	}
	if cred.Disabled {
		h.Log.Info("forgot password: disabled account", zap.String("user_id", cred.UID()))
		return
	}

	tok, err := h.Resets.Create(ctx, cred.UID(), cred.Email)
	if err != nil {
		if err == resettokens.ErrTooManyRequests {
			h.Log.Warn("forgot password: rate limited", zap.String("user_id", cred.UID()))
		} else {
			h.Log.Error("forgot password: token create failed", zap.Error(err))
		}
		return
	}

	name := ""
	if u, err := h.Users.GetByID(ctx, cred.UID()); err == nil {
		name = u.DisplayName
	}

	msg := mailer.BuildResetLinkEmail(mailer.ResetLinkEmailData{
		SiteName: viewdata.GetSiteName(ctx, h.DB),
		Name:     name,
		ResetURL: h.BaseURL + "/login/nullstill?token=" + tok.Token,
		Expiry:   expiryText(h.Resets.Expiry()),
	})
	msg.To = cred.Email
	if err := h.Mail.Send(msg); err != nil {
		h.Log.Error("forgot password: send failed", zap.Error(err))
	}
}

func expiryText(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 2 {
		return strconv.Itoa(hours) + " timer"
	}
	if d >= time.Hour {
		return "1 time"
	}
	return strconv.Itoa(int(d.Minutes())) + " minutter"
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reset via emailed link                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// GET /login/nullstill?token=...
func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/login/glemt-passord", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login_reset", resetFormData{
		BaseVM:        viewdata.NewBaseVM(r, h.DB, "Velg nytt passord", "/login"),
		Token:         token,
		PasswordRules: authutil.PasswordRules(),
	})
}

// POST /login/nullstill
func (h *Handler) HandleResetPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "reset password: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/login")
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	renderError := func(msg string) {
		templates.Render(w, r, "login_reset", resetFormData{
			BaseVM:        viewdata.NewBaseVM(r, h.DB, "Velg nytt passord", "/login"),
			Token:         token,
			PasswordRules: authutil.PasswordRules(),
			Error:         msg,
		})
	}

	if token == "" {
		http.Redirect(w, r, "/login/glemt-passord", http.StatusSeeOther)
		return
	}
	if password != confirm {
		renderError("Passordene er ikke like.")
		return
	}
	if err := authutil.ValidatePassword(password); err != nil {
		renderError(passwordErrorMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tok, err := h.Resets.Consume(ctx, token)
	if err != nil {
		if err == resettokens.ErrNotFound {
			templates.Render(w, r, "login", loginFormData{
				BaseVM: viewdata.NewBaseVM(r, h.DB, "Logg inn", "/"),
				Error:  "Lenken er ugyldig eller utløpt. Be om en ny under «Glemt passord».",
			})
			return
		}
		h.ErrLog.LogServerError(w, r, "reset password: consume failed", err,
			"Noe gikk galt. Prøv igjen.", "/login")
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reset password: hash failed", err,
			"Passordet kunne ikke lagres. Prøv igjen.", "/login")
		return
	}

	if err := h.Creds.UpdatePassword(ctx, tok.UID, hash, false); err != nil {
		h.ErrLog.LogServerError(w, r, "reset password: update failed", err,
			"Passordet kunne ikke lagres. Prøv igjen.", "/login")
		return
	}

	h.Log.Info("password reset completed", zap.String("user_id", tok.UID))
	templates.Render(w, r, "login", loginFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Logg inn", "/"),
		Email:  tok.Email,
		Notice: "Passordet er oppdatert. Logg inn med det nye passordet.",
	})
}

func passwordErrorMessage(err error) string {
	switch err {
	case authutil.ErrPasswordTooShort:
		return "Passordet er for kort. " + authutil.PasswordRules()
	case authutil.ErrPasswordTooLong:
		return "Passordet er for langt (maks 72 tegn)."
	case authutil.ErrPasswordCommon:
		return "Passordet er for vanlig. Velg noe mindre opplagt."
	default:
		return "Passordet kan ikke brukes. " + authutil.PasswordRules()
	}
}
