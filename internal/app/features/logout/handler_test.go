package logout_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/features/logout"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *logout.Handler {
	t.Helper()
	sessions, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "leirefolket_session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return logout.NewHandler(sessions, zap.NewNop())
}

func TestServeLogout_RedirectsHome(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.MemberUser())
	rec := testutil.NewRecorder()

	h.ServeLogout(rec, req)

	rec.AssertRedirect(t, "/")
}

func TestServeLogout_ExpiresCookie(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.MemberUser())
	rec := testutil.NewRecorder()

	h.ServeLogout(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "leirefolket_session" && c.MaxAge >= 0 {
			t.Errorf("session cookie not expired: MaxAge=%d", c.MaxAge)
		}
	}
}

func TestServeLogout_HTMXRedirect(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.MemberUser())
	req.Header.Set("HX-Request", "true")
	rec := testutil.NewRecorder()

	h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(got, "/") {
		t.Errorf("HX-Redirect: got %q", got)
	}
}
