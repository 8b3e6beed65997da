// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a calendar entry (kurs, åpent verksted, medlemsmøte, ...).
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`

	Date time.Time `bson:"date" json:"date"`

	AuthorID   string `bson:"author_id" json:"author_id"`
	AuthorName string `bson:"author_name" json:"author_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// RSVP statuses.
const (
	RSVPComing    = "coming"
	RSVPNotComing = "not_coming"
)

// RSVP is one user's attendance answer for one event. Submitting the same
// status again withdraws the answer (the record is deleted).
type RSVP struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID  string             `bson:"user_id" json:"user_id"`
	Status  string             `bson:"status" json:"status"` // coming | not_coming

	UserName  string `bson:"user_name" json:"user_name"`
	UserPhoto string `bson:"user_photo,omitempty" json:"user_photo,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
