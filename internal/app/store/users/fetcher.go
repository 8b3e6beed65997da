package userstore

import (
	"context"

	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/normalize"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh role/profile data on
// each request, so role changes and deletion requests take effect on the
// user's next request rather than at their next login.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves a user by UID and returns nil if the record is not
// found or any error occurs. This implements auth.UserFetcher.
//
// Accounts marked pending_deletion still resolve: they keep read access to
// the member area during the grace period, and the guard layer decides what
// that status may see.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	if userID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":          1,
		"display_name": 1,
		"email":        1,
		"role":         1,
		"status":       1,
		"photo_url":    1,
	})

	if err := f.users.FindOne(ctx, bson.M{"_id": userID}, proj).Decode(&u); err != nil {
		return nil
	}

	// Profiles imported from the old site can lack the role field, and an
	// empty role reads as signed out everywhere. Repair to the baseline
	// role; the write is best effort and retried on the next request.
	if normalize.Role(u.Role) == "" {
		u.Role = string(models.RoleMember)
		_, _ = f.users.UpdateOne(ctx,
			bson.M{"_id": userID, "role": bson.M{"$in": bson.A{"", nil}}},
			bson.M{"$set": bson.M{"role": u.Role}})
	}

	return &auth.SessionUser{
		ID:       u.ID,
		Name:     u.DisplayName,
		Email:    u.Email,
		Role:     normalize.Role(u.Role),
		PhotoURL: u.PhotoURL,
		Status:   normalize.Status(u.Status),
	}
}
