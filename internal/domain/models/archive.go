// internal/domain/models/archive.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Archive reasons recorded when a membership ends.
const (
	ArchiveReasonVoluntary = "voluntary"        // grace period elapsed after a self-requested deletion
	ArchiveReasonBanned    = "banned/immediate" // admin deleted the account on the spot
)

// ArchiveRecord summarizes a former membership. A UID appears either here
// or in the users collection, never both.
type ArchiveRecord struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID      string             `bson:"uid" json:"uid"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email" json:"email"`
	Role     string             `bson:"role,omitempty" json:"role,omitempty"`

	StartDate time.Time `bson:"start_date" json:"start_date"` // membership began
	EndDate   time.Time `bson:"end_date" json:"end_date"`     // archived at
	Reason    string    `bson:"reason" json:"reason"`
}
