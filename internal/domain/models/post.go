// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a feed entry published by an admin or contributor.
type Post struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`

	AuthorID   string `bson:"author_id" json:"author_id"`
	AuthorName string `bson:"author_name" json:"author_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Comment belongs to a post. Any signed-in member may comment.
type Comment struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID primitive.ObjectID `bson:"post_id" json:"post_id"`
	Text   string             `bson:"text" json:"text"`

	AuthorID    string `bson:"author_id" json:"author_id"`
	AuthorName  string `bson:"author_name" json:"author_name"`
	AuthorPhoto string `bson:"author_photo,omitempty" json:"author_photo,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Reaction is one user's like on one post. At most one reaction exists per
// (post, user) pair; the like count for a post is its reaction count.
type Reaction struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID primitive.ObjectID `bson:"post_id" json:"post_id"`
	UserID string             `bson:"user_id" json:"user_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
