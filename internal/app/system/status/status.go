// internal/app/system/status/status.go
package status

// Account statuses for user records.
const (
	Active          = "active"
	PendingDeletion = "pending_deletion"
)

// IsValid reports whether s is a known account status.
func IsValid(s string) bool {
	return s == Active || s == PendingDeletion
}
