package events_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/features/events"
	eventstore "github.com/leirefolket/leirefolket/internal/app/store/events"
	rsvpstore "github.com/leirefolket/leirefolket/internal/app/store/rsvps"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*events.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return events.NewHandler(db, nil, nil, zap.NewNop()), db
}

func TestHandleCreate_Contributor(t *testing.T) {
	h, db := newTestHandler(t)
	author := testutil.ContributorUser()

	req := testutil.NewFormRequest("/medlem/arrangementer", map[string]string{
		"title":       "Rakubrenning",
		"date":        "2026-10-03T12:00",
		"location":    "Verkstedet",
		"description": "Ta med keramikk som tåler røyk.",
	})
	req = testutil.WithUser(req, author)
	rec := testutil.NewRecorder()

	h.HandleCreate(rec, req)
	rec.AssertRedirect(t, "/medlem/arrangementer")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	upcoming, err := eventstore.New(db).ListUpcoming(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))
	if err != nil || len(upcoming) != 1 {
		t.Fatalf("event not created: %v (%d)", err, len(upcoming))
	}
	e := upcoming[0]
	if e.AuthorID != author.ID {
		t.Errorf("author: got %q, want %q", e.AuthorID, author.ID)
	}
	if e.Date.Hour() != 12 || e.Date.Day() != 3 {
		t.Errorf("date parsed wrong: %v", e.Date)
	}
}

func TestHandleCreate_MemberForbidden(t *testing.T) {
	h, db := newTestHandler(t)

	req := testutil.NewFormRequest("/medlem/arrangementer", map[string]string{
		"title": "Nei",
		"date":  "2026-10-03T12:00",
	})
	req = testutil.WithUser(req, testutil.MemberUser())
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleCreate(rec, req)
	}()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	upcoming, _ := eventstore.New(db).ListUpcoming(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))
	if len(upcoming) != 0 {
		t.Error("member must not be able to create events")
	}
}

func TestHandleCreate_BadDate(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewFormRequest("/medlem/arrangementer", map[string]string{
		"title": "Uten dato",
		"date":  "neste lørdag",
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleCreate(rec, req)
	}()

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleRSVP_ToggleAndWithdraw(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	event := fx.CreateEvent(ctx, "Medlemsmøte", time.Now().Add(48*time.Hour))
	member := testutil.MemberUser()

	answer := func(a string) *testutil.ResponseRecorder {
		req := testutil.NewFormRequest("/medlem/arrangementer/"+event.ID.Hex()+"/svar", map[string]string{"answer": a})
		req = testutil.WithUser(req, member)
		req = testutil.WithChiURLParam(req, "id", event.ID.Hex())
		req.Header.Set("HX-Request", "true")
		rec := testutil.NewRecorder()
		h.HandleRSVP(rec, req)
		return rec
	}

	rsvps := rsvpstore.New(db)

	rec := answer(models.RSVPComing)
	rec.AssertStatus(t, http.StatusNoContent)
	if n, _ := rsvps.CountComing(ctx, event.ID); n != 1 {
		t.Errorf("after coming: %d coming, want 1", n)
	}

	// Switching the answer replaces it.
	answer(models.RSVPNotComing)
	if status, _ := rsvps.Get(ctx, event.ID, member.ID); status != models.RSVPNotComing {
		t.Errorf("after switch: status %q, want %q", status, models.RSVPNotComing)
	}

	// Repeating the answer withdraws it.
	answer(models.RSVPNotComing)
	if status, _ := rsvps.Get(ctx, event.ID, member.ID); status != "" {
		t.Errorf("after withdraw: status %q, want empty", status)
	}
}

func TestHandleRSVP_MissingEvent(t *testing.T) {
	h, _ := newTestHandler(t)

	bogus := "64b0c0ffee0000000000bbbb"
	req := testutil.NewFormRequest("/medlem/arrangementer/"+bogus+"/svar", map[string]string{"answer": models.RSVPComing})
	req = testutil.WithUser(req, testutil.MemberUser())
	req = testutil.WithChiURLParam(req, "id", bogus)
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleRSVP(rec, req)
	}()

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleDelete_AdminCascadesRSVPs(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	event := fx.CreateEvent(ctx, "Avlyst kurs", time.Now().Add(72*time.Hour))

	rsvps := rsvpstore.New(db)
	if _, err := rsvps.Toggle(ctx, event.ID, "medlem-1", "Medlem", "", models.RSVPComing); err != nil {
		t.Fatalf("seed rsvp: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("POST", "/medlem/arrangementer/"+event.ID.Hex()+"/slett", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", event.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleDelete(rec, req)
	rec.AssertRedirect(t, "/medlem/arrangementer")

	if _, err := eventstore.New(db).GetByID(ctx, event.ID); err != mongo.ErrNoDocuments {
		t.Errorf("event not deleted: %v", err)
	}
	if status, _ := rsvps.Get(ctx, event.ID, "medlem-1"); status != "" {
		t.Error("rsvps not cascaded")
	}
}

func TestHandleDelete_ContributorOnlyOwn(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	event := fx.CreateEvent(ctx, "Andres arrangement", time.Now().Add(24*time.Hour))

	req := testutil.NewAuthenticatedRequest("POST", "/medlem/arrangementer/"+event.ID.Hex()+"/slett", testutil.ContributorUser())
	req = testutil.WithChiURLParam(req, "id", event.ID.Hex())
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleDelete(rec, req)
	}()

	if _, err := eventstore.New(db).GetByID(ctx, event.ID); err != nil {
		t.Error("contributor must not delete someone else's event")
	}
}

func TestHandleUpdate_AuthorEdits(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := testutil.ContributorUser()
	store := eventstore.New(db)
	created, err := store.Create(ctx, models.Event{
		Title:    "Gammel tittel",
		Date:     time.Now().Add(24 * time.Hour),
		AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}

	req := testutil.NewFormRequest("/medlem/arrangementer/"+created.ID.Hex()+"/endre", map[string]string{
		"title":    "Ny tittel",
		"location": "Nytt sted",
	})
	req = testutil.WithUser(req, author)
	req = testutil.WithChiURLParam(req, "id", created.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleUpdate(rec, req)
	rec.AssertRedirect(t, "/medlem/arrangementer")

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got.Title != "Ny tittel" || got.Location != "Nytt sted" {
		t.Errorf("update not applied: %+v", got)
	}
	// Omitting the date keeps the old one.
	if got.Date.IsZero() {
		t.Error("date was cleared by an update without a date field")
	}
}
