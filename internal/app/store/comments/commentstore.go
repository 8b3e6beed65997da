package commentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

var (
	errNoText   = errors.New("comment text is required")
	errNoAuthor = errors.New("author is required")
)

// Add inserts a comment on a post.
func (s *Store) Add(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return models.Comment{}, errNoText
	}
	if c.AuthorID == "" {
		return models.Comment{}, errNoAuthor
	}

	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListByPost returns a post's comments oldest first, the order a
// conversation reads in.
func (s *Store) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	cur, err := s.c.Find(ctx, bson.M{"post_id": postID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByPost returns the number of comments on a post.
func (s *Store) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"post_id": postID})
}

// Delete removes a comment when the caller is its author or an admin.
// The authorization decision happens before this call; the authorUID filter
// is a second line so a stale form can't delete someone else's comment.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, authorUID string, isAdmin bool) (int64, error) {
	filter := bson.M{"_id": id}
	if !isAdmin {
		filter["author_id"] = authorUID
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByPost removes all comments for a post (post deletion cleanup).
func (s *Store) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
