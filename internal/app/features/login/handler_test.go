package login_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/features/login"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	"github.com/leirefolket/leirefolket/internal/app/store/resettokens"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginEnv struct {
	handler *login.Handler
	creds   *credentialstore.Store
	users   *userstore.Store
	db      *mongo.Database
}

func newLoginEnv(t *testing.T) *loginEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessions, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "leirefolket_session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	creds := credentialstore.New(db)
	users := userstore.New(db)
	resets := resettokens.New(db, 0)
	mail := mailer.New("", 0, "", "", "", logger)

	h := login.NewHandler(db, sessions, creds, users, resets, mail, "http://localhost:8080", logger)
	return &loginEnv{handler: h, creds: creds, users: users, db: db}
}

// createAccount inserts a credential with a known password.
func (e *loginEnv) createAccount(t *testing.T, email, password string, temp bool) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cred, err := e.creds.Create(ctx, email, hash, temp)
	if err != nil {
		t.Fatalf("create credential: %v", err)
	}
	return cred.UID()
}

func postLogin(t *testing.T, h *login.Handler, form map[string]string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewFormRequest("/login", form)
	rec := testutil.NewRecorder()

	// Error branches render a template; without registered template sets
	// that can panic, which is fine for these tests.
	func() {
		defer func() { _ = recover() }()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func TestServeLogin_SignedInRedirectsToMemberArea(t *testing.T) {
	env := newLoginEnv(t)

	req := testutil.NewRequest("GET", "/login")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Name: "Kari", Role: "member", Status: "active"})
	rec := testutil.NewRecorder()

	env.handler.ServeLogin(rec, req)

	rec.AssertRedirect(t, "/medlem")
}

func TestServeLogin_PendingDeletionSeesLoginForm(t *testing.T) {
	env := newLoginEnv(t)

	// The member-area guard treats pending_deletion as signed out, so
	// bouncing such a session to /medlem would loop straight back here.
	req := testutil.NewRequest("GET", "/login")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Name: "Kari", Role: "member", Status: "pending_deletion"})
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		env.handler.ServeLogin(rec, req)
	}()

	if rec.Code == http.StatusSeeOther {
		t.Errorf("pending_deletion session must not be redirected off the login page, got Location %q", rec.Header().Get("Location"))
	}
}

func TestHandleLoginPost_Success(t *testing.T) {
	env := newLoginEnv(t)
	uid := env.createAccount(t, "kari@example.com", "leirefugl77", false)

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "kari@example.com",
		"password": "leirefugl77",
	})

	rec.AssertRedirect(t, "/medlem")

	// Login must have created the role/profile record.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := env.users.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if u.Role != "member" {
		t.Errorf("new profile role: got %q, want member", u.Role)
	}
	if u.DisplayName != "kari" {
		t.Errorf("default display name: got %q, want kari", u.DisplayName)
	}
}

func TestHandleLoginPost_KeepsExistingRole(t *testing.T) {
	env := newLoginEnv(t)
	uid := env.createAccount(t, "styret@example.com", "leirefugl77", false)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := env.users.EnsureProfile(ctx, uid, "styret@example.com", "Styret", "admin"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "styret@example.com",
		"password": "leirefugl77",
	})
	rec.AssertRedirect(t, "/medlem")

	u, err := env.users.GetByID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != "admin" {
		t.Errorf("role after login: got %q, want admin (login must not downgrade)", u.Role)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	env := newLoginEnv(t)
	env.createAccount(t, "kari@example.com", "leirefugl77", false)

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "kari@example.com",
		"password": "noe-helt-annet",
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("wrong password must not redirect into the member area")
	}
}

func TestHandleLoginPost_UnknownEmail(t *testing.T) {
	env := newLoginEnv(t)

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "ingen@example.com",
		"password": "leirefugl77",
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("unknown email must not redirect into the member area")
	}
}

func TestHandleLoginPost_DisabledCredential(t *testing.T) {
	env := newLoginEnv(t)
	uid := env.createAccount(t, "kari@example.com", "leirefugl77", false)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := env.creds.SetDisabled(ctx, uid, true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "kari@example.com",
		"password": "leirefugl77",
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("disabled credential must not sign in")
	}
}

func TestHandleLoginPost_PendingDeletionDenied(t *testing.T) {
	env := newLoginEnv(t)
	uid := env.createAccount(t, "kari@example.com", "leirefugl77", false)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := env.users.EnsureProfile(ctx, uid, "kari@example.com", "Kari", "member"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if err := env.users.RequestDeletion(ctx, uid); err != nil {
		t.Fatalf("RequestDeletion: %v", err)
	}

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "kari@example.com",
		"password": "leirefugl77",
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("pending_deletion account must be denied at login")
	}
}

func TestHandleLoginPost_TempPasswordStartsChangeFlow(t *testing.T) {
	env := newLoginEnv(t)
	env.createAccount(t, "kari@example.com", "midlertidig99", true)

	rec := postLogin(t, env.handler, map[string]string{
		"email":    "kari@example.com",
		"password": "midlertidig99",
	})

	rec.AssertRedirect(t, "/login/nytt-passord")
}
