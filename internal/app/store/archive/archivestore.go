// Package archivestore persists summary records of deleted memberships.
// An archive record is what remains after an account is permanently
// removed: enough to answer "who was a member, when, and why did they
// leave", and enough to rebuild a membership via restore.
package archivestore

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
	return &Store{c: db.Collection("archived_members")}
}

var errNoUID = errors.New("uid is required")

// Add inserts an archive record for a removed member. EndDate defaults to
// now when unset.
func (s *Store) Add(ctx context.Context, rec models.ArchiveRecord) (models.ArchiveRecord, error) {
	if rec.UID == "" {
		return models.ArchiveRecord{}, errNoUID
	}

	rec.ID = primitive.NewObjectID()
	rec.FullName = normalize.Name(rec.FullName)
	rec.Email = normalize.Email(rec.Email)
	if rec.EndDate.IsZero() {
		rec.EndDate = time.Now()
	}

	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.ArchiveRecord{}, err
	}
	return rec, nil
}

// GetByID loads an archive record. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ArchiveRecord, error) {
	var rec models.ArchiveRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all archive records, newest departures first.
func (s *Store) List(ctx context.Context) ([]models.ArchiveRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"end_date": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.ArchiveRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Delete removes a single archive record (after a restore).
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// WipeAll removes every archive record and returns the count removed.
func (s *Store) WipeAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
