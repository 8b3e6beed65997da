// Package credentialstore persists login credentials, separate from the
// role/profile records so that wiping a profile and revoking sign-in are
// independent operations.
package credentialstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/leirefolket/leirefolket/internal/app/system/normalize"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("credentials")}
}

var (
	// ErrDuplicateEmail is returned when creating a credential with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("a credential with this email already exists")
	errNoEmail        = errors.New("email is required")
	errNoHash         = errors.New("password hash is required")
)

// Create inserts a new credential and returns it with the assigned ID.
// The ID's hex form is the account's UID everywhere else in the system.
func (s *Store) Create(ctx context.Context, email, passwordHash string, passwordTemp bool) (models.Credential, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.Credential{}, errNoEmail
	}
	if passwordHash == "" {
		return models.Credential{}, errNoHash
	}

	now := time.Now()
	cred := models.Credential{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		PasswordTemp: passwordTemp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Credential{}, ErrDuplicateEmail
		}
		return models.Credential{}, err
	}
	return cred, nil
}

// GetByEmail looks up a credential by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var c models.Credential
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUID looks up a credential by its UID (ObjectID hex).
func (s *Store) GetByUID(ctx context.Context, uid string) (*models.Credential, error) {
	oid, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var c models.Credential
	if err := s.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdatePassword replaces the password hash. passwordTemp marks a reset
// password the user must change at next login.
func (s *Store) UpdatePassword(ctx context.Context, uid, passwordHash string, passwordTemp bool) error {
	oid, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	res, err := s.c.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"password_temp": passwordTemp,
		"updated_at":    time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetDisabled toggles sign-in for a credential without removing it.
func (s *Store) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	oid, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	res, err := s.c.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"disabled":   disabled,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a credential. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, uid string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return 0, nil
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
