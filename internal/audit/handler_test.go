package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository, guard func(http.Handler) http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo), guard)
	r := chi.NewRouter()
	r.Route("/audit", handler.MountRoutes)
	return r
}

func TestHandlerTimeline(t *testing.T) {
	repo := &stubTimelineRepo{
		windowRows: []Entry{
			mockEntry("2026-05-10T10:00:00Z", ActionVoterUpdate),
			mockEntry("2026-05-09T09:00:00Z", ActionSecurityLockout),
		},
	}
	router := newTestRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/audit/?page=2&page_size=25&action=voter.update", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 26, repo.lastLimit)
	require.Equal(t, 25, repo.lastOffset)
	require.Equal(t, "voter.update", repo.lastFilter.Action)

	var body struct {
		Rows []struct {
			Action    string `json:"action"`
			ActorName string `json:"actor_name"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 2)
	require.Equal(t, ActionVoterUpdate, body.Rows[0].Action)
	require.Equal(t, "clerk", body.Rows[0].ActorName)
}

func TestHandlerExportCSV(t *testing.T) {
	repo := &stubTimelineRepo{
		allRows: []Entry{
			mockEntry("2026-05-10T10:00:00Z", ActionSecurityLockout),
		},
	}
	router := newTestRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/audit/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "id,action,details,actor_id,actor_name,occurred_at", lines[0])
	require.Contains(t, lines[1], ActionSecurityLockout)
}

func TestHandlerGuardApplied(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	router := newTestRouter(&stubTimelineRepo{}, deny)

	req := httptest.NewRequest(http.MethodGet, "/audit/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
