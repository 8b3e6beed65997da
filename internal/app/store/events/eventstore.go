package eventstore

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
	return &Store{c: db.Collection("events")}
}

var (
	errNoTitle = errors.New("title is required")
	errNoDate  = errors.New("date is required")
)

// Create inserts an event.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.Title = normalize.Name(e.Title)
	if e.Title == "" {
		return models.Event{}, errNoTitle
	}
	if e.Date.IsZero() {
		return models.Event{}, errNoDate
	}

	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListUpcoming returns events on or after the given local midnight, soonest
// first. An event stays "upcoming" through its whole day, so the split
// point is the start of today, not the current instant.
func (s *Store) ListUpcoming(ctx context.Context, startOfToday time.Time) ([]models.Event, error) {
	return s.list(ctx, bson.M{"date": bson.M{"$gte": startOfToday}}, 1)
}

// ListPast returns events before the given local midnight, most recent first.
func (s *Store) ListPast(ctx context.Context, startOfToday time.Time) ([]models.Event, error) {
	return s.list(ctx, bson.M{"date": bson.M{"$lt": startOfToday}}, -1)
}

func (s *Store) list(ctx context.Context, filter bson.M, sortDir int) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.M{"date": sortDir}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update replaces the editable fields of an event.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, e models.Event) error {
	e.Title = normalize.Name(e.Title)
	if e.Title == "" {
		return errNoTitle
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"image_url":   e.ImageURL,
		"date":        e.Date,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an event. RSVPs are removed by the caller.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// StartOfToday returns local midnight in the given location, the boundary
// between past and upcoming events.
func StartOfToday(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}
