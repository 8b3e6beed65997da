// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aboutfeature "github.com/leirefolket/leirefolket/internal/app/features/about"
	adminusersfeature "github.com/leirefolket/leirefolket/internal/app/features/adminusers"
	contactfeature "github.com/leirefolket/leirefolket/internal/app/features/contact"
	documentsfeature "github.com/leirefolket/leirefolket/internal/app/features/documents"
	errorsfeature "github.com/leirefolket/leirefolket/internal/app/features/errors"
	eventsfeature "github.com/leirefolket/leirefolket/internal/app/features/events"
	feedfeature "github.com/leirefolket/leirefolket/internal/app/features/feed"
	galleryfeature "github.com/leirefolket/leirefolket/internal/app/features/gallery"
	healthfeature "github.com/leirefolket/leirefolket/internal/app/features/health"
	homefeature "github.com/leirefolket/leirefolket/internal/app/features/home"
	loginfeature "github.com/leirefolket/leirefolket/internal/app/features/login"
	logoutfeature "github.com/leirefolket/leirefolket/internal/app/features/logout"
	personvernfeature "github.com/leirefolket/leirefolket/internal/app/features/personvern"
	profilefeature "github.com/leirefolket/leirefolket/internal/app/features/profile"
	settingsfeature "github.com/leirefolket/leirefolket/internal/app/features/settings"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	resettokenstore "github.com/leirefolket/leirefolket/internal/app/store/resettokens"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/guard"

	// Each views package registers its template set in init().
	_ "github.com/leirefolket/leirefolket/internal/app/features/about/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/adminusers/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/contact/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/documents/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/events/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/feed/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/gallery/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/home/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/login/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/personvern/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/profile/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/settings/views"
	_ "github.com/leirefolket/leirefolket/internal/app/features/shared/views"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the runtime singletons built in
// Startup (object store, live binder, mailer, account service) are ready.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request, so role
	// changes, disabled accounts, and deletion requests take effect
	// immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase

	r := chi.NewRouter()

	// CSRF protection for every form post and the JSON admin endpoints.
	// htmx requests carry the token in the X-CSRF-Token header; regular
	// forms use the hidden gorilla.csrf.Token field.
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey), csrf.Secure(secure), csrf.Path("/")))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(db, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	aboutHandler := aboutfeature.NewHandler(db, logger)
	r.Mount("/om", aboutfeature.Routes(aboutHandler))

	contactHandler := contactfeature.NewHandler(db, mailSender, logger)
	r.Mount("/kontakt", contactfeature.Routes(contactHandler))

	galleryHandler := galleryfeature.NewHandler(db, fileStore, liveBinder, liveCache, logger)
	r.Mount("/galleri", galleryfeature.Routes(galleryHandler))

	personvernHandler := personvernfeature.NewHandler(db, logger)
	r.Mount("/personvern", personvernfeature.Routes(personvernHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(
		db,
		sessionMgr,
		credentialstore.New(db),
		userstore.New(db),
		resettokenstore.New(db, appCfg.ResetTokenExpiry),
		mailSender,
		appCfg.BaseURL,
		logger,
	)
	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(guard.LoginPage))
		r.Mount("/login", loginfeature.Routes(loginHandler))
	})

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Member area. The guard treats accounts pending deletion as signed
	// out, so a restored account is the only way back in.
	r.Route("/medlem", func(r chi.Router) {
		r.Use(guard.Middleware(guard.Protected))

		feedHandler := feedfeature.NewHandler(db, liveBinder, liveCache, logger)
		r.Mount("/", feedfeature.Routes(feedHandler))

		eventsHandler := eventsfeature.NewHandler(db, liveBinder, liveCache, logger)
		r.Mount("/arrangementer", eventsfeature.Routes(eventsHandler))

		documentsHandler := documentsfeature.NewHandler(db, fileStore, logger)
		r.Mount("/dokumenter", documentsfeature.Routes(documentsHandler))

		profileHandler := profilefeature.NewHandler(db, fileStore, sessionMgr, logger)
		r.Mount("/profil", profilefeature.Routes(profileHandler))
	})

	// Admin area
	r.Route("/admin", func(r chi.Router) {
		r.Use(sessionMgr.RequireRole("admin"))

		adminUsersHandler := adminusersfeature.NewHandler(db, accountsSvc, mailSender, appCfg.BaseURL, logger)
		r.Mount("/brukere", adminusersfeature.Routes(adminUsersHandler))

		r.Mount("/galleri", galleryfeature.AdminRoutes(galleryHandler))

		settingsHandler := settingsfeature.NewHandler(db, fileStore, logger)
		r.Mount("/innstillinger", settingsfeature.Routes(settingsHandler))
	})

	return r, nil
}
