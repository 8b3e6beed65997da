// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds the site-wide configuration editable by admins.
// There is a single settings document.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	SiteName     string `bson:"site_name" json:"site_name"`
	ContactEmail string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`

	// Logo object key in file storage; empty when no logo is uploaded.
	LogoPath string `bson:"logo_path,omitempty" json:"logo_path,omitempty"`

	// Footer
	FooterHTML string `bson:"footer_html,omitempty" json:"footer_html,omitempty"`

	// Audit fields
	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   string     `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string     `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultSiteName is the default site name used when settings don't exist.
const DefaultSiteName = "Leirefolket"
