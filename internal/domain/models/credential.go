// internal/domain/models/credential.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is a login identity: email plus bcrypt password hash.
// It is stored separately from the profile record so that deleting an
// account removes the sign-in identity and the profile independently,
// and so that a credential can be disabled without touching the profile.
type Credential struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Disabled     bool               `bson:"disabled" json:"disabled"`

	// PasswordTemp marks a temporary password issued on restore; the user
	// must change it at next sign-in.
	PasswordTemp bool `bson:"password_temp,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UID returns the auth UID string used as the profile document ID.
func (c *Credential) UID() string { return c.ID.Hex() }
