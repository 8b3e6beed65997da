package reactionstore

import (
	"context"
	"errors"
	"time"

	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reactions")}
}

var errNoUser = errors.New("user is required")

// Toggle flips a user's like on a post: present becomes absent, absent
// becomes present. Returns liked=true when the post ends up liked.
func (s *Store) Toggle(ctx context.Context, postID primitive.ObjectID, userID string) (liked bool, err error) {
	if userID == "" {
		return false, errNoUser
	}

	filter := bson.M{"post_id": postID, "user_id": userID}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = s.c.InsertOne(ctx, models.Reaction{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		// A concurrent toggle can insert first; the unique index turns that
		// into a duplicate, which means the like already landed.
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// CountByPost returns the like count for a post.
func (s *Store) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"post_id": postID})
}

// HasLiked reports whether the user currently likes the post.
func (s *Store) HasLiked(ctx context.Context, postID primitive.ObjectID, userID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"post_id": postID, "user_id": userID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// DeleteByPost removes all reactions for a post (post deletion cleanup).
func (s *Store) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
