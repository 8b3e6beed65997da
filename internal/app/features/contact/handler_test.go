package contact_test

import (
	"net/http"
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/features/contact"
	settingsstore "github.com/leirefolket/leirefolket/internal/app/store/settings"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*contact.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mail := mailer.New("", 0, "", "", "", zap.NewNop())
	return contact.NewHandler(db, mail, zap.NewNop()), db
}

func postContact(t *testing.T, h *contact.Handler, form map[string]string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewFormRequest("/kontakt", form)
	rec := testutil.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.HandleContactPost(rec, req)
	}()
	return rec
}

func TestHandleContactPost_ForwardsToConfiguredAddress(t *testing.T) {
	h, db := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := settingsstore.New(db).Save(ctx, models.SiteSettings{
		SiteName:     "Leirefolket",
		ContactEmail: "styret@example.com",
	}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	rec := postContact(t, h, map[string]string{
		"name":    "Kari",
		"email":   "kari@example.com",
		"message": "Hei! Kan jeg bli medlem?",
	})

	// The disabled mailer accepts the message, so the handler reaches the
	// confirmation render rather than an error page.
	if rec.Code == http.StatusInternalServerError {
		t.Errorf("unexpected server error: %s", rec.Body.String())
	}
}

func TestHandleContactPost_InvalidEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postContact(t, h, map[string]string{
		"name":    "Kari",
		"email":   "ikke-en-adresse",
		"message": "Hei!",
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("invalid email must not be accepted")
	}
}

func TestHandleContactPost_NoContactAddressConfigured(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postContact(t, h, map[string]string{
		"name":    "Kari",
		"email":   "kari@example.com",
		"message": "Hei!",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500 when no contact address is set", rec.Code)
	}
}
