package documentstore

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
	return &Store{c: db.Collection("documents")}
}

var (
	errNoTitle = errors.New("title is required")
	errNoPath  = errors.New("storage path is required")
)

// Add inserts a document entry. The file itself is already in object
// storage when this runs.
func (s *Store) Add(ctx context.Context, d models.Document) (models.Document, error) {
	d.Title = normalize.Name(d.Title)
	if d.Title == "" {
		return models.Document{}, errNoTitle
	}
	if d.Path == "" {
		return models.Document{}, errNoPath
	}

	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

// List returns all documents, newest first.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetByID loads a document entry. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var d models.Document
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete removes a document entry. The stored object is removed by the caller.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
