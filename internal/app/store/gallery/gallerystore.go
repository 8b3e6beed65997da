package gallerystore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("gallery")}
}

var errNoURL = errors.New("image url is required")

// Add inserts a gallery image. When Order is zero the image is placed last.
func (s *Store) Add(ctx context.Context, img models.GalleryImage) (models.GalleryImage, error) {
	if img.URL == "" {
		return models.GalleryImage{}, errNoURL
	}

	if img.Order == 0 {
		max, err := s.maxOrder(ctx)
		if err != nil {
			return models.GalleryImage{}, err
		}
		img.Order = max + 1
	}

	img.ID = primitive.NewObjectID()
	img.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, img); err != nil {
		return models.GalleryImage{}, err
	}
	return img, nil
}

func (s *Store) maxOrder(ctx context.Context) (int, error) {
	var top models.GalleryImage
	err := s.c.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.M{"order": -1})).Decode(&top)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return top.Order, nil
}

// List returns all images in display order.
func (s *Store) List(ctx context.Context) ([]models.GalleryImage, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var imgs []models.GalleryImage
	if err := cur.All(ctx, &imgs); err != nil {
		return nil, err
	}
	return imgs, nil
}

// GetByID loads an image. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.GalleryImage, error) {
	var img models.GalleryImage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&img); err != nil {
		return nil, err
	}
	return &img, nil
}

// SetOrder moves an image to a new position in the display order.
func (s *Store) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"order": order}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an image record. The stored object is removed by the caller.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
