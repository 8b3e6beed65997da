// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, rendering appropriate error
// pages when checks fail.
//
// # Two-Tier Authorization Pattern
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//     Example: sm.RequireRole("admin") ensures all routes in a group require admin.
//     When middleware handles role checking, handlers don't need gates.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need role checks WITHOUT route-level middleware,
//     or need different role requirements than the route group.
//     Gates render error pages and return user context (role, name, userID).
//     Example: gates.RequirePublisher inside the feed handler, where reads
//     are open to all members but publishing is not.
//
// Don't use gates in handlers that are behind role-specific middleware.
// If routes.go has RequireRole("admin"), handlers don't need gates.RequireAdmin.
// Instead, use authz.UserCtx(r) to get user context without re-checking role.
package gates

import (
	"net/http"

	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	"github.com/leirefolket/leirefolket/internal/app/system/authz"
	"github.com/leirefolket/leirefolket/internal/domain/models"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID string
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it renders an unauthorized error and returns OK=false.
// The loginURL parameter specifies where to redirect for login.
func RequireAuth(w http.ResponseWriter, r *http.Request, loginURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, loginURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and has the admin role.
// If not authenticated, renders unauthorized error.
// If authenticated but not admin, renders forbidden error with the provided message and fallback URL.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if !models.ParseRole(role).CanManageUsers() {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequirePublisher ensures the user is authenticated and may publish content
// (admin or contributor role).
func RequirePublisher(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if !models.ParseRole(role).CanPublish() {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAnyRole ensures the user is authenticated and has one of the specified roles.
// If not authenticated, renders unauthorized error.
// If authenticated but role not in allowed list, renders forbidden error.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string, allowedRoles ...string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if role == allowed {
			return Result{Role: role, Name: name, UserID: uid, OK: true}
		}
	}

	uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
	return Result{OK: false}
}
