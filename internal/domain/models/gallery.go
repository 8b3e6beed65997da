// internal/domain/models/gallery.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GalleryImage is one image in the admin-curated public gallery.
// Ordering on the public page follows the Order field ascending.
type GalleryImage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title,omitempty" json:"title,omitempty"`
	URL     string             `bson:"url" json:"url"`
	Path    string             `bson:"path" json:"path"` // object storage key
	Order   int                `bson:"order" json:"order"`
	AddedBy string             `bson:"added_by,omitempty" json:"added_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
