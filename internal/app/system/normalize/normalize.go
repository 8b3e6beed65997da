// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string. Validation against the closed
// role set happens in models.ParseRole; this only canonicalizes the text.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims an account status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OrgRole trims a board-title string ("sekretær", "styremedlem"),
// preserving case as entered.
func OrgRole(s string) string {
	return strings.TrimSpace(s)
}
