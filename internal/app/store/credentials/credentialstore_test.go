package credentialstore_test

import (
	"testing"

	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cred, err := store.Create(ctx, "Kari@Example.com", "$2b$12$fakehash", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if cred.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if cred.Email != "kari@example.com" {
		t.Errorf("Email: got %q, want normalized lowercase", cred.Email)
	}
	if cred.UID() == "" {
		t.Error("expected UID to be derivable")
	}
	if cred.CreatedAt.IsZero() || cred.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	testutil.EnsureIndexes(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "dup@example.com", "$2b$12$one", false); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, "DUP@example.com", "$2b$12$two", false)
	if err != credentialstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Create_MissingFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "", "$2b$12$hash", false); err == nil {
		t.Error("expected error for missing email")
	}
	if _, err := store.Create(ctx, "x@example.com", "", false); err == nil {
		t.Error("expected error for missing password hash")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "finn@example.com", "$2b$12$hash", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByEmail(ctx, "FINN@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID: got %v, want %v", found.ID, created.ID)
	}
}

func TestStore_GetByUID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "uid@example.com", "$2b$12$hash", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByUID(ctx, created.UID())
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if found.Email != "uid@example.com" {
		t.Errorf("Email: got %q", found.Email)
	}

	if _, err := store.GetByUID(ctx, "not-a-hex-uid"); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for malformed UID, got %v", err)
	}
}

func TestStore_UpdatePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "pw@example.com", "$2b$12$old", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.UpdatePassword(ctx, created.UID(), "$2b$12$new", true); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	found, err := store.GetByUID(ctx, created.UID())
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if found.PasswordHash != "$2b$12$new" {
		t.Errorf("PasswordHash not updated: %q", found.PasswordHash)
	}
	if !found.PasswordTemp {
		t.Error("expected PasswordTemp to be set")
	}
}

func TestStore_SetDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "dis@example.com", "$2b$12$hash", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetDisabled(ctx, created.UID(), true); err != nil {
		t.Fatalf("SetDisabled failed: %v", err)
	}

	found, err := store.GetByUID(ctx, created.UID())
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if !found.Disabled {
		t.Error("expected credential to be disabled")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "del@example.com", "$2b$12$hash", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count, err := store.Delete(ctx, created.UID())
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deleted, got %d", count)
	}

	// Malformed UID deletes nothing rather than erroring.
	count, err = store.Delete(ctx, "garbage")
	if err != nil || count != 0 {
		t.Errorf("expected (0, nil) for malformed UID, got (%d, %v)", count, err)
	}
}
