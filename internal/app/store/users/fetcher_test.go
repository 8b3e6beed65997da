package userstore_test

import (
	"testing"

	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFetchUser_ResolvesProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	u := userstore.NewFetcher(db).FetchUser(ctx, uid)
	if u == nil {
		t.Fatal("expected a session user")
	}
	if u.Role != "member" || u.Status != "active" {
		t.Errorf("got role %q status %q, want member/active", u.Role, u.Status)
	}
}

func TestFetchUser_UnknownID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if u := userstore.NewFetcher(db).FetchUser(ctx, newUID()); u != nil {
		t.Errorf("unknown id must resolve to nil, got %+v", u)
	}
}

func TestFetchUser_RepairsMissingRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Profiles imported from the old site predate the role field.
	uid := newUID()
	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"_id":          uid,
		"display_name": "Gammel Bruker",
		"email":        "gammel@example.com",
		"status":       "active",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	u := userstore.NewFetcher(db).FetchUser(ctx, uid)
	if u == nil {
		t.Fatal("expected a session user")
	}
	if u.Role != "member" {
		t.Errorf("role: got %q, want member (account must not be locked out)", u.Role)
	}

	// The repair must stick so the next fetch reads it straight back.
	stored, err := userstore.New(db).GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Role != "member" {
		t.Errorf("stored role: got %q, want member", stored.Role)
	}
}
