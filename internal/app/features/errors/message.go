// internal/app/features/errors/message.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/leirefolket/leirefolket/internal/app/system/authz"
)

func renderMessage(w http.ResponseWriter, r *http.Request, title, msg, backURL string) {
	role, name, _, signedIn := authz.UserCtx(r)
	if backURL == "" {
		backURL = "/"
	}

	data := pageData{
		Title:      title,
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_page", data)
}
