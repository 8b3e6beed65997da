package home_test

import (
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/features/home"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *home.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return home.NewHandler(db, zap.NewNop())
}

func TestNewHandler(t *testing.T) {
	if newTestHandler(t) == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestServeRoot_Public(t *testing.T) {
	handler := newTestHandler(t)

	req := testutil.NewRequest("GET", "/")
	rec := testutil.NewRecorder()

	// Rendering may panic without initialized template sets; the handler
	// logic up to the render call is what this exercises.
	func() {
		defer func() { _ = recover() }()
		handler.ServeRoot(rec, req)
	}()
}

func TestServeRoot_SignedIn(t *testing.T) {
	handler := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/", testutil.MemberUser())
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		handler.ServeRoot(rec, req)
	}()
}
