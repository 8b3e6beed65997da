package personvern_test

import (
	"net/http"
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/features/personvern"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.uber.org/zap"
)

func TestServePrivacy_PublicPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := personvern.NewHandler(db, zap.NewNop())

	req := testutil.NewRequest("GET", "/personvern")
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.ServePrivacy(rec, req)
	}()

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}
