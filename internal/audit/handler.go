package audit

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall-hq/rollcall/internal/platform/httpx"
)

// Handler serves the audit trail read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. The guard middleware gates both endpoints;
// the audit package itself knows nothing about permissions.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers audit routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Get("/", h.handleTimeline)
		r.Get("/export", h.handleExport)
	})
}

type entryResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

type timelineResponse struct {
	Rows   []entryResponse `json:"rows"`
	Paging PagingInfo      `json:"paging"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Timeline(r.Context(), filtersFromQuery(r))
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]entryResponse, 0, len(result.Rows))
	for _, e := range result.Rows {
		rows = append(rows, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, timelineResponse{Rows: rows, Paging: result.Paging})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Export(r.Context(), filtersFromQuery(r))
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "action", "details", "actor_id", "actor_name", "occurred_at"})
	for _, e := range entries {
		_ = cw.Write([]string{
			e.ID.String(),
			e.Action,
			e.Details,
			strconv.FormatInt(e.ActorID, 10),
			e.ActorName,
			e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("audit export write", slog.Any("error", err))
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		Details:    e.Details,
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		OccurredAt: e.OccurredAt,
	}
}

func filtersFromQuery(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	filters := TimelineFilters{
		Actor:  q.Get("actor"),
		Action: q.Get("action"),
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.To = t
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		filters.PageSize = size
	}
	return filters
}
