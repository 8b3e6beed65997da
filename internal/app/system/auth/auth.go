package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the resolved identity + role/profile injected into
// r.Context() for every authenticated request.
type SessionUser struct {
	ID       string // auth UID (credential ObjectID hex)
	Name     string
	Email    string
	Role     string // member | contributor | admin
	PhotoURL string
	Status   string
}

// UserFetcher loads the authoritative role/profile record for a UID.
// Implementations must return nil for missing, disabled, or malformed
// records — a nil result resolves the request as unauthenticated.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and the per-request session
// resolution pipeline.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds a SessionManager over a signed cookie store.
//
// In production (secure=true) cookies are Secure + SameSite=None; in local
// dev over http, Lax so the browser accepts them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store (logout needs its options to
// emit a matching deletion cookie).
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the request's session, decoding the cookie if present.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SetUserFetcher installs the fetcher used by LoadSessionUser. Without a
// fetcher every request resolves unauthenticated.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the resolved user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser resolves the session exactly once, before any handler
// runs. The order is fixed: cookie identity first, then the role/profile
// record via the UserFetcher. Any failure along the way — bad cookie,
// fetch error, missing or disabled record — resolves the request as
// unauthenticated and drops the stale cookie, so a revoked account is
// signed out on its next request rather than left hanging.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Undecodable cookie: treat as signed out.
			next.ServeHTTP(w, r)
			return
		}

		isAuth, _ := sess.Values[isAuthKey].(bool)
		uid, _ := sess.Values[userIDKey].(string)
		if !isAuth || uid == "" {
			next.ServeHTTP(w, r)
			return
		}

		if sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		u := sm.fetcher.FetchUser(r.Context(), uid)
		if u == nil {
			// Identity exists in the cookie but no usable role/profile
			// record backs it. Force the sign-out to stick.
			sm.clearSession(w, r, sess, uid)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

func (sm *SessionManager) clearSession(w http.ResponseWriter, r *http.Request, sess *sessions.Session, uid string) {
	delete(sess.Values, isAuthKey)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("failed to clear session for unresolvable user",
			zap.Error(err), zap.String("user_id", uid))
	} else {
		sm.log.Info("cleared session: no valid user record",
			zap.String("user_id", uid))
	}
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		redirectToLogin(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles in
// context. Wrong role gets 403 semantics (redirect to /forbidden for
// browsers, plain 403 for API callers).
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				redirectToLogin(w, r)
				return
			}

			if _, has := set[strings.ToLower(u.Role)]; !has {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SignIn records the authenticated UID in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, uid string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// A stale or undecodable cookie must not block a fresh login.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Warn("stale session cookie, starting fresh", zap.Error(err))
		} else {
			sm.log.Error("session store error, starting fresh", zap.Error(err))
		}
		sess, err = sm.store.New(r, sm.name)
		if err != nil {
			return err
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = uid
	return sess.Save(r, w)
}

// SignOut drops the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	uid, _ := sess.Values[userIDKey].(string)
	sm.clearSession(w, r, sess, uid)
}

// WithTestUser injects a SessionUser into the request context.
// Test helper that mirrors what LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
