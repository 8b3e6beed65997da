// Package testutil holds shared helpers for store and handler tests.
// Store tests need a real MongoDB; SetupTestDB skips the test when none
// is reachable, so the unit-test suite still runs on a bare machine.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTestURI = "mongodb://localhost:27017"

// SetupTestDB connects to the test MongoDB (MONGO_TEST_URI or localhost)
// and returns a fresh database that is dropped when the test finishes.
// The test is skipped if no server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = defaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	// A unique name per test keeps parallel tests from stepping on each other.
	dbName := fmt.Sprintf("leirefolket_test_%s", primitive.NewObjectID().Hex())
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop test database %s: %v", dbName, err)
		}
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with the standard test timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// EnsureIndexes applies the full production index set to the test
// database, for tests that rely on unique-constraint behavior.
func EnsureIndexes(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll indexes failed: %v", err)
	}
}

// SetField overwrites one field on a document by _id, bypassing the
// store API. Used to backdate timestamps the stores set themselves.
func SetField(t *testing.T, db *mongo.Database, coll string, id any, field string, value any) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()

	res, err := db.Collection(coll).UpdateByID(ctx, id, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		t.Fatalf("SetField %s.%s failed: %v", coll, field, err)
	}
	if res.MatchedCount == 0 {
		t.Fatalf("SetField %s.%s matched no document for id %v", coll, field, id)
	}
}
