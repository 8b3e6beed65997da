// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/leirefolket/leirefolket/internal/app/system/auth"
)

// RoleVisitor is the role reported for requests with no resolved user.
const RoleVisitor = "visitor"

// UserCtx extracts the signed-in user's role, display name, and UID from the
// request context. Fails closed: any request without a resolved session user
// reports ("visitor", "", "", false).
func UserCtx(r *http.Request) (role, name, uid string, ok bool) {
	u, found := auth.CurrentUser(r)
	if !found || u == nil || u.ID == "" {
		return RoleVisitor, "", "", false
	}
	return u.Role, u.Name, u.ID, true
}

// PhotoURL returns the signed-in user's avatar URL, or "" for visitors.
func PhotoURL(r *http.Request) string {
	u, found := auth.CurrentUser(r)
	if !found || u == nil {
		return ""
	}
	return u.PhotoURL
}
