// Package guard decides, per page class, whether a request may proceed or
// must be redirected. It is the single place where the "who may see what"
// navigation rules live; auth middleware enforces the decision.
package guard

import (
	"net/http"
	"net/url"

	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/status"
)

// PageClass classifies a route for access decisions.
type PageClass int

const (
	// Public pages render for everyone, signed in or not.
	Public PageClass = iota
	// Protected pages require a signed-in user with a resolved role.
	Protected
	// LoginPage is the sign-in page itself: signed-in users are bounced
	// to the member area instead of seeing the form again.
	LoginPage
)

const (
	loginURL  = "/login"
	memberURL = "/medlem"
)

// Decision is the outcome of a guard check. When Allow is false, RedirectTo
// names where the request must go.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Decide applies the navigation rules for a page class against the resolved
// session user (nil when unauthenticated). A user whose account is marked
// for deletion is treated as signed out on protected pages: the record
// exists but no longer grants access.
func Decide(class PageClass, u *auth.SessionUser) Decision {
	signedIn := u != nil && u.ID != "" && u.Role != ""
	if signedIn && u.Status == status.PendingDeletion {
		signedIn = false
	}

	switch class {
	case Protected:
		if !signedIn {
			return Decision{RedirectTo: loginURL}
		}
		return Decision{Allow: true}
	case LoginPage:
		if signedIn {
			return Decision{RedirectTo: memberURL}
		}
		return Decision{Allow: true}
	default:
		return Decision{Allow: true}
	}
}

// Middleware enforces Decide for every request on a route, preserving the
// original URL in ?return= when bouncing to the login page.
func Middleware(class PageClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := auth.CurrentUser(r)
			d := Decide(class, u)
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}

			target := d.RedirectTo
			if target == loginURL {
				target += "?return=" + url.QueryEscape(r.URL.RequestURI())
			}

			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
