package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile inserts a user profile with the given role and returns it.
// The UID is generated the way real accounts get one.
func (f *Fixtures) CreateProfile(ctx context.Context, displayName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID().Hex(),
		DisplayName: displayName,
		Email:       email,
		Role:        role,
		Status:      "active",
		MemberSince: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return u
}

// CreateMemberProfile inserts an ordinary member profile.
func (f *Fixtures) CreateMemberProfile(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateProfile(ctx, displayName, email, "member")
}

// CreateAdminProfile inserts an admin profile.
func (f *Fixtures) CreateAdminProfile(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateProfile(ctx, displayName, email, "admin")
}

// CreatePost inserts a feed post by the given author.
func (f *Fixtures) CreatePost(ctx context.Context, title, content, authorUID, authorName string) models.Post {
	f.t.Helper()

	p := models.Post{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Content:    content,
		AuthorID:   authorUID,
		AuthorName: authorName,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

// CreateEvent inserts a calendar event on the given date.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, date time.Time) models.Event {
	f.t.Helper()

	e := models.Event{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Date:       date,
		AuthorID:   primitive.NewObjectID().Hex(),
		AuthorName: "Arrangør",
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateArchiveRecord inserts an archived membership summary.
func (f *Fixtures) CreateArchiveRecord(ctx context.Context, fullName, email, reason string) models.ArchiveRecord {
	f.t.Helper()

	rec := models.ArchiveRecord{
		ID:       primitive.NewObjectID(),
		UID:      primitive.NewObjectID().Hex(),
		FullName: fullName,
		Email:    email,
		Role:     "member",
		EndDate:  time.Now().UTC(),
		Reason:   reason,
	}

	if _, err := f.db.Collection("archived_members").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test archive record: %v", err)
	}
	return rec
}
