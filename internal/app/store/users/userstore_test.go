package userstore_test

import (
	"testing"
	"time"

	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newUID() string { return primitive.NewObjectID().Hex() }

func TestStore_EnsureProfile_CreatesRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "Kari@Example.com", "Kari Nordmann", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if u.DisplayName != "Kari Nordmann" {
		t.Errorf("DisplayName: got %q, want %q", u.DisplayName, "Kari Nordmann")
	}
	if u.Email != "kari@example.com" {
		t.Errorf("Email: got %q, want normalized %q", u.Email, "kari@example.com")
	}
	if u.AccessRole() != models.RoleMember {
		t.Errorf("Role: got %q, want %q", u.Role, models.RoleMember)
	}
	if u.Status != "active" {
		t.Errorf("Status: got %q, want %q", u.Status, "active")
	}
	if u.MemberSince.IsZero() {
		t.Error("expected MemberSince to be set")
	}
}

func TestStore_EnsureProfile_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("first EnsureProfile failed: %v", err)
	}

	// Admin promotes the user between logins.
	if err := store.UpdateRole(ctx, uid, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}

	// The next login must not clobber the assigned role.
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("second EnsureProfile failed: %v", err)
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.AccessRole() != models.RoleAdmin {
		t.Errorf("Role: got %q, want %q after repeat EnsureProfile", u.Role, models.RoleAdmin)
	}
}

func TestStore_EnsureProfile_DefaultDisplayName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "ola.hansen@example.com", "   ", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.DisplayName != "ola.hansen" {
		t.Errorf("DisplayName: got %q, want email local part", u.DisplayName)
	}
}

func TestStore_EnsureProfile_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureProfile(ctx, newUID(), "x@example.com", "X", models.Role("sekretær")); err == nil {
		t.Fatal("expected error for role outside the closed set")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, newUID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "FindMe@Example.COM", "Finn Meg", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	u, err := store.GetByEmail(ctx, "findme@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.ID != uid {
		t.Errorf("ID: got %v, want %v", u.ID, uid)
	}
}

func TestStore_UpdateProfile_MergesFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	photo := "https://files.example.com/avatars/kari.jpg"
	if err := store.UpdateProfile(ctx, uid, userstore.ProfileUpdate{PhotoURL: &photo}); err != nil {
		t.Fatalf("UpdateProfile (photo) failed: %v", err)
	}

	// A later display-name edit must not clear the photo.
	name := "Kari N."
	if err := store.UpdateProfile(ctx, uid, userstore.ProfileUpdate{DisplayName: &name}); err != nil {
		t.Fatalf("UpdateProfile (name) failed: %v", err)
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.DisplayName != "Kari N." {
		t.Errorf("DisplayName: got %q, want %q", u.DisplayName, "Kari N.")
	}
	if u.PhotoURL != photo {
		t.Errorf("PhotoURL: got %q, want it preserved", u.PhotoURL)
	}
}

func TestStore_RequestDeletion_ThenClear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	if err := store.RequestDeletion(ctx, uid); err != nil {
		t.Fatalf("RequestDeletion failed: %v", err)
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.Status != "pending_deletion" {
		t.Errorf("Status: got %q, want pending_deletion", u.Status)
	}
	if u.DeletionRequestedAt == nil {
		t.Fatal("expected DeletionRequestedAt to be set")
	}

	if err := store.ClearPendingDeletion(ctx, uid); err != nil {
		t.Fatalf("ClearPendingDeletion failed: %v", err)
	}

	u, err = store.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.Status != "active" {
		t.Errorf("Status: got %q, want active after restore", u.Status)
	}
	if u.DeletionRequestedAt != nil {
		t.Error("expected DeletionRequestedAt to be cleared")
	}
}

func TestStore_ClearPendingDeletion_ActiveAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	err := store.ClearPendingDeletion(ctx, uid)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for active account, got %v", err)
	}
}

func TestStore_ListPendingOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	oldUID, freshUID := newUID(), newUID()
	for _, uid := range []string{oldUID, freshUID} {
		if err := store.EnsureProfile(ctx, uid, uid+"@example.com", "U", models.RoleMember); err != nil {
			t.Fatalf("EnsureProfile failed: %v", err)
		}
		if err := store.RequestDeletion(ctx, uid); err != nil {
			t.Fatalf("RequestDeletion failed: %v", err)
		}
	}

	// Backdate one request past the cutoff.
	old := time.Now().Add(-31 * 24 * time.Hour)
	testutil.SetField(t, db, "users", oldUID, "deletion_requested_at", old)

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	due, err := store.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListPendingOlderThan failed: %v", err)
	}

	if len(due) != 1 {
		t.Fatalf("expected 1 due account, got %d", len(due))
	}
	if due[0].ID != oldUID {
		t.Errorf("expected %s to be due, got %s", oldUID, due[0].ID)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := newUID()
	if err := store.EnsureProfile(ctx, uid, "kari@example.com", "Kari", models.RoleMember); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}

	count, err := store.Delete(ctx, uid)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deleted, got %d", count)
	}

	_, err = store.GetByID(ctx, uid)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments after delete, got %v", err)
	}
}
