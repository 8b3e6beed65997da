// internal/app/store/resettokens/resettokenstore.go
package resettokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// TokenLength is the token size in bytes (32 bytes = 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long a reset token stays valid.
	DefaultExpiry = 1 * time.Hour
	// MaxRequests is the number of reset requests allowed per window.
	MaxRequests = 3
	// RequestWindow is the rate-limit window for reset requests.
	RequestWindow = 1 * time.Hour
)

var (
	// ErrNotFound is returned when a token is unknown or expired.
	ErrNotFound = errors.New("reset token not found or expired")
	// ErrTooManyRequests is returned when the rate limit is hit.
	ErrTooManyRequests = errors.New("too many reset requests")
)

// ResetToken is a pending password reset. Tokens are single use; the
// record is deleted on successful consumption and otherwise expires via
// the TTL index on expires_at.
type ResetToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UID          string             `bson:"uid"` // credential ID hex
	Email        string             `bson:"email"`
	Token        string             `bson:"token"`
	ExpiresAt    time.Time          `bson:"expires_at"`
	CreatedAt    time.Time          `bson:"created_at"`
	RequestCount int                `bson:"request_count"`
	WindowStart  time.Time          `bson:"window_start"`
}

// Store manages password reset tokens.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store with the given expiry. A non-positive expiry
// falls back to DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("password_resets"), expiry: expiry}
}

// Expiry returns the token lifetime.
func (s *Store) Expiry() time.Duration { return s.expiry }

// Create issues a new token for the account, replacing any existing
// one. Repeat requests inside the rate-limit window beyond MaxRequests
// return ErrTooManyRequests.
func (s *Store) Create(ctx context.Context, uid, email string) (*ResetToken, error) {
	now := time.Now()

	var existing ResetToken
	err := s.c.FindOne(ctx, bson.M{"uid": uid}).Decode(&existing)
	existingFound := err == nil

	requestCount := 1
	windowStart := now
	if existingFound && now.Before(existing.WindowStart.Add(RequestWindow)) {
		if existing.RequestCount >= MaxRequests {
			return nil, ErrTooManyRequests
		}
		requestCount = existing.RequestCount + 1
		windowStart = existing.WindowStart
	}

	// One pending token per account.
	if _, err := s.c.DeleteMany(ctx, bson.M{"uid": uid}); err != nil {
		return nil, fmt.Errorf("clear prior tokens: %w", err)
	}

	tok := ResetToken{
		ID:           primitive.NewObjectID(),
		UID:          uid,
		Email:        email,
		Token:        generateToken(),
		ExpiresAt:    now.Add(s.expiry),
		CreatedAt:    now,
		RequestCount: requestCount,
		WindowStart:  windowStart,
	}

	if _, err := s.c.InsertOne(ctx, tok); err != nil {
		return nil, fmt.Errorf("insert reset token: %w", err)
	}
	return &tok, nil
}

// Consume validates a token and deletes it (single use).
func (s *Store) Consume(ctx context.Context, token string) (*ResetToken, error) {
	var tok ResetToken
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&tok)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": tok.ID}); err != nil {
		return nil, err
	}
	return &tok, nil
}

// DeleteByUID removes any pending tokens for the account.
func (s *Store) DeleteByUID(ctx context.Context, uid string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"uid": uid})
	return err
}

// generateToken panics only if the system CSPRNG fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
