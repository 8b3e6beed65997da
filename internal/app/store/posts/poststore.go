package poststore

import (
	"context"
	"errors"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/system/normalize"
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
	return &Store{c: db.Collection("posts")}
}

var (
	errNoTitle  = errors.New("title is required")
	errNoAuthor = errors.New("author is required")
)

// Create inserts a feed post.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	p.Title = normalize.Name(p.Title)
	if p.Title == "" {
		return models.Post{}, errNoTitle
	}
	if p.AuthorID == "" {
		return models.Post{}, errNoAuthor
	}

	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// GetByID loads a post. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRecent returns the newest posts first, capped at limit.
// The feed page grows the limit in steps as the reader scrolls.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes a post. Comments and reactions for the post are removed by
// the caller; there is no cascade here.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
