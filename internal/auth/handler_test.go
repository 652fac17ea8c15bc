package auth

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall-hq/rollcall/internal/authz"
)

func newLoginRouter(t *testing.T) chi.Router {
	t.Helper()
	svc, _ := newLoginService(t, newMemRepo(), &memRecorder{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, nil, authz.NewResolver())
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func TestLoginRouteRateLimited(t *testing.T) {
	router := newLoginRouter(t)

	// Distinct usernames keep the per-username lockout counter out of the
	// picture; only the per-IP budget is exercised here.
	for i := 0; i < loginRateLimit; i++ {
		body := fmt.Sprintf(`{"username":"visitor-%d","password":"wrong"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("request %d status = %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"visitor","password":"wrong"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("over-budget status = %d", rr.Code)
	}
}

func TestLoginBlockedResponseUniform(t *testing.T) {
	repo := newMemRepo(&Actor{ID: 1, Username: "maria", Blocked: true, PasswordHash: hashPassword(t, "s3cret-pass")})
	svc, _ := newLoginService(t, repo, &memRecorder{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, nil, authz.NewResolver())
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)

	// A persisted block and counter suppression of an unknown username must
	// produce the same status and body.
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"maria","password":"s3cret-pass"}`))
	blocked := httptest.NewRecorder()
	r.ServeHTTP(blocked, req)
	if blocked.Code != http.StatusLocked {
		t.Fatalf("blocked status = %d", blocked.Code)
	}

	for range DefaultMaxAttempts {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ghost","password":"wrong"}`))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ghost","password":"wrong"}`))
	suppressed := httptest.NewRecorder()
	r.ServeHTTP(suppressed, req)
	if suppressed.Code != http.StatusLocked {
		t.Fatalf("suppressed status = %d", suppressed.Code)
	}
	if blocked.Body.String() != suppressed.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", blocked.Body.String(), suppressed.Body.String())
	}
}
