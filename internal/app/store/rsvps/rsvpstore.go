package rsvpstore

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
	return &Store{c: db.Collection("rsvps")}
}

var (
	errNoUser    = errors.New("user is required")
	errBadAnswer = errors.New(`status must be "coming"|"not_coming"`)
)

// Toggle records a user's attendance answer for an event. Answering with
// the status already on record withdraws the answer; answering differently
// replaces it. Returns the user's answer after the call ("" when withdrawn).
func (s *Store) Toggle(ctx context.Context, eventID primitive.ObjectID, userID, userName, userPhoto, answer string) (string, error) {
	if userID == "" {
		return "", errNoUser
	}
	if answer != models.RSVPComing && answer != models.RSVPNotComing {
		return "", errBadAnswer
	}

	filter := bson.M{"event_id": eventID, "user_id": userID}

	var existing models.RSVP
	err := s.c.FindOne(ctx, filter).Decode(&existing)
	switch err {
	case nil:
		if existing.Status == answer {
			if _, err := s.c.DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
				return "", err
			}
			return "", nil
		}
	case mongo.ErrNoDocuments:
		// fall through to upsert
	default:
		return "", err
	}

	_, err = s.c.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"status":     answer,
			"user_name":  userName,
			"user_photo": userPhoto,
			"updated_at": time.Now(),
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return "", err
	}
	return answer, nil
}

// ListByEvent returns all answers for an event, "coming" first, then by name.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.RSVP, error) {
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID},
		options.Find().SetSort(bson.D{{Key: "status", Value: 1}, {Key: "user_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rsvps []models.RSVP
	if err := cur.All(ctx, &rsvps); err != nil {
		return nil, err
	}
	return rsvps, nil
}

// Get returns the user's current answer for an event ("" when none).
func (s *Store) Get(ctx context.Context, eventID primitive.ObjectID, userID string) (string, error) {
	var r models.RSVP
	err := s.c.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return r.Status, nil
}

// CountComing returns the number of "coming" answers for an event.
func (s *Store) CountComing(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID, "status": models.RSVPComing})
}

// DeleteByEvent removes all answers for an event (event deletion cleanup).
func (s *Store) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
