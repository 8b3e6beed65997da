// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// User is the role/profile record for a member of the association.
//
// The document ID is the auth UID (the credential record's ID hex), not a
// generated ObjectID, so a point read of users/{uid} resolves the profile
// for a signed-in identity directly.
type User struct {
	ID          string `bson:"_id" json:"id"`
	DisplayName string `bson:"display_name" json:"display_name"`
	Email       string `bson:"email" json:"email"`
	PhotoURL    string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`

	Role    string `bson:"role" json:"role"`                             // member | contributor | admin
	OrgRole string `bson:"org_role,omitempty" json:"org_role,omitempty"` // display-only board title, e.g. "sekretær"

	Status              string     `bson:"status" json:"status"` // active | pending_deletion
	DeletionRequestedAt *time.Time `bson:"deletion_requested_at,omitempty" json:"deletion_requested_at,omitempty"`

	MemberSince time.Time `bson:"member_since" json:"member_since"`

	// Consent flags, reset when an account is restored from the archive.
	PrivacyConsent    bool `bson:"privacy_consent" json:"privacy_consent"`
	NewsletterConsent bool `bson:"newsletter_consent" json:"newsletter_consent"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AccessRole returns the user's normalized access role.
func (u *User) AccessRole() Role { return ParseRole(u.Role) }

// IsPendingDeletion reports whether the account has requested deletion and
// is waiting out the grace period.
func (u *User) IsPendingDeletion() bool { return u.Status == "pending_deletion" }

// DefaultDisplayName derives the initial display name for a new profile
// from the email local-part, matching what EnsureProfile writes.
func DefaultDisplayName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
