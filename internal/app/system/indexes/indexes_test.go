package indexes_test

import (
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/system/indexes"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_ExpectedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"credentials": {"uniq_credentials_email"},
		"users": {
			"idx_users_email",
			"idx_users_status_deletion_requested",
			"idx_users_display_name",
		},
		"archived_members": {"idx_archive_uid", "idx_archive_end_date"},
		"posts":            {"idx_posts_created"},
		"comments":         {"idx_comments_post_created"},
		"reactions":        {"uniq_reactions_post_user"},
		"events":           {"idx_events_date"},
		"rsvps":            {"uniq_rsvps_event_user"},
		"gallery":          {"idx_gallery_order"},
		"documents":        {"idx_documents_created"},
		"site_settings":    {"uniq_settings_key"},
	}

	for coll, names := range expected {
		got := indexNames(t, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q on %s collection", name, coll)
			}
		}
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("credentials").InsertOne(ctx, bson.M{"email": "kari@example.com"}); err != nil {
		t.Fatalf("insert credential failed: %v", err)
	}
	if _, err := db.Collection("credentials").InsertOne(ctx, bson.M{"email": "kari@example.com"}); err == nil {
		t.Error("expected duplicate key error for unique index on credentials.email")
	}
}

func TestEnsureAll_UniqueReactionEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	doc := bson.M{"post_id": "p1", "user_id": "u1"}
	if _, err := db.Collection("reactions").InsertOne(ctx, doc); err != nil {
		t.Fatalf("insert reaction failed: %v", err)
	}
	if _, err := db.Collection("reactions").InsertOne(ctx, bson.M{"post_id": "p1", "user_id": "u1"}); err == nil {
		t.Error("expected duplicate key error for unique index on reactions (post_id, user_id)")
	}
}
