package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/system/normalize"
	"github.com/leirefolket/leirefolket/internal/app/system/status"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists role/profile records. Documents are keyed by the auth UID
// (the credential's ObjectID hex), so a session cookie resolves to its
// profile with a single point read.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	errBadRole   = errors.New(`role must be "member"|"contributor"|"admin"`)
	errBadStatus = errors.New(`status must be "active"|"pending_deletion"`)
	errNoUID     = errors.New("uid is required")
)

// EnsureProfile creates the role/profile record for a UID if it does not
// already exist. Existing documents are left untouched, so repeated calls
// (every login does one) never clobber admin-assigned roles or a
// pending-deletion status.
func (s *Store) EnsureProfile(ctx context.Context, uid, email, displayName string, role models.Role) error {
	if uid == "" {
		return errNoUID
	}
	if !models.IsValidRole(string(role)) {
		return errBadRole
	}

	displayName = normalize.Name(displayName)
	if displayName == "" {
		displayName = models.DefaultDisplayName(email)
	}

	now := time.Now()
	_, err := s.c.UpdateByID(ctx, uid, bson.M{
		"$setOnInsert": bson.M{
			"display_name": displayName,
			"email":        normalize.Email(email),
			"role":         string(role),
			"status":       status.Active,
			"member_since": now,
			"created_at":   now,
			"updated_at":   now,
		},
	}, options.Update().SetUpsert(true))
	return err
}

// GetByID loads a user by UID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users sorted by display name, for the admin user list.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"display_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ProfileUpdate holds the self-service editable profile fields. Nil fields
// are left unchanged, so a display-name edit never clears the photo and
// vice versa.
type ProfileUpdate struct {
	DisplayName       *string
	PhotoURL          *string
	PrivacyConsent    *bool
	NewsletterConsent *bool
}

// UpdateProfile merges the given fields into the user's record. DisplayName
// is stored exactly as entered apart from surrounding whitespace.
func (s *Store) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	if upd.DisplayName != nil {
		set["display_name"] = normalize.Name(*upd.DisplayName)
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if upd.PrivacyConsent != nil {
		set["privacy_consent"] = *upd.PrivacyConsent
	}
	if upd.NewsletterConsent != nil {
		set["newsletter_consent"] = *upd.NewsletterConsent
	}

	_, err := s.c.UpdateByID(ctx, uid, bson.M{"$set": set})
	return err
}

// UpdateRole sets a user's access role. Admin-only operation.
func (s *Store) UpdateRole(ctx context.Context, uid string, role models.Role) error {
	if !models.IsValidRole(string(role)) {
		return errBadRole
	}
	_, err := s.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{
		"role":       string(role),
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateOrgRole sets a user's board title ("sekretær", "styremedlem", ...).
// The title is display-only and never affects access.
func (s *Store) UpdateOrgRole(ctx context.Context, uid, orgRole string) error {
	_, err := s.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{
		"org_role":   normalize.OrgRole(orgRole),
		"updated_at": time.Now(),
	}})
	return err
}

// RequestDeletion marks an account pending_deletion and stamps the request
// time. The record survives for the grace period; the daily cleanup sweep
// archives and removes it once the period runs out.
func (s *Store) RequestDeletion(ctx context.Context, uid string) error {
	now := time.Now()
	res, err := s.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{
		"status":                status.PendingDeletion,
		"deletion_requested_at": now,
		"updated_at":            now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearPendingDeletion restores a pending_deletion account to active and
// removes the request timestamp. Returns mongo.ErrNoDocuments when the
// record is missing or not pending.
func (s *Store) ClearPendingDeletion(ctx context.Context, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid, "status": status.PendingDeletion},
		bson.M{
			"$set":   bson.M{"status": status.Active, "updated_at": time.Now()},
			"$unset": bson.M{"deletion_requested_at": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListPendingOlderThan returns accounts marked pending_deletion whose
// request time is at or before the cutoff. Used by the daily cleanup sweep.
func (s *Store) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"status":                status.PendingDeletion,
		"deletion_requested_at": bson.M{"$lte": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user record. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, uid string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
