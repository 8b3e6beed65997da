// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a member-visible file entry (årsmøtepapirer, vedtekter, ...).
// The file itself lives in object storage under Path.
type Document struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title    string             `bson:"title" json:"title"`
	Path     string             `bson:"path" json:"path"`
	URL      string             `bson:"url" json:"url"`
	FileName string             `bson:"file_name" json:"file_name"`
	Size     int64              `bson:"size,omitempty" json:"size,omitempty"`

	UploadedByID   string `bson:"uploaded_by_id" json:"uploaded_by_id"`
	UploadedByName string `bson:"uploaded_by_name" json:"uploaded_by_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
