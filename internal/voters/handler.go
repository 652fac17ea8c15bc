package voters

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall-hq/rollcall/internal/auth"
	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/platform/httpx"
)

// AuditDegradedHeader flags a response whose mutation succeeded but whose
// audit append did not. The mutation is never rolled back for that.
const AuditDegradedHeader = "X-Audit-Degraded"

// Handler exposes the voter roll over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *authz.Gate
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *authz.Gate, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, mw: mw}
}

// MountRoutes registers voter routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireAny(authz.PermPageVoters)).Group(func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/form", h.handleForm)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handleUpdate)
		r.Put("/{id}/has-voted", h.handleSetHasVoted)
		r.Delete("/{id}", h.handleDelete)
	})
}

type voterResponse struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	NationalID     string `json:"national_id"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Street         string `json:"street,omitempty"`
	District       string `json:"district,omitempty"`
	PollingStation string `json:"polling_station,omitempty"`
	Notes          string `json:"notes,omitempty"`
	HasVoted       bool   `json:"has_voted"`
	Support        bool   `json:"support"`
	Pledged        bool   `json:"pledged"`
	Mobilized      bool   `json:"mobilized"`
	Priority       bool   `json:"priority"`
}

func toResponse(v *Voter) voterResponse {
	return voterResponse{
		ID:             v.ID,
		FirstName:      v.FirstName,
		LastName:       v.LastName,
		NationalID:     v.NationalID,
		Email:          v.Email,
		Phone:          v.Phone,
		Street:         v.Street,
		District:       v.District,
		PollingStation: v.PollingStation,
		Notes:          v.Notes,
		HasVoted:       v.HasVoted,
		Support:        v.Support,
		Pledged:        v.Pledged,
		Mobilized:      v.Mobilized,
		Priority:       v.Priority,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	voters, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list voters", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]voterResponse, 0, len(voters))
	for i := range voters {
		out = append(out, toResponse(&voters[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	voter, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(voter))
}

type formResponse struct {
	ReadOnly bool            `json:"read_only"`
	Fields   map[string]bool `json:"fields"`
}

// handleForm tells the client how to render the edit form for this actor:
// whether the whole thing is read-only and which fields are editable.
func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(w, r); !ok {
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	info := actor.Info()
	httpx.JSON(w, http.StatusOK, formResponse{
		ReadOnly: h.gate.FormReadOnly(info, authz.RecordVoters, authz.ModeEdit),
		Fields:   h.gate.EditableFields(info, authz.RecordVoters, authz.ModeEdit, FieldPermissions),
	})
}

type createRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	NationalID     string `json:"national_id"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Street         string `json:"street"`
	District       string `json:"district"`
	PollingStation string `json:"polling_station"`
	Notes          string `json:"notes"`
	Support        bool   `json:"support"`
	Pledged        bool   `json:"pledged"`
	Mobilized      bool   `json:"mobilized"`
	Priority       bool   `json:"priority"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	result, err := h.service.Create(r.Context(), actor, Voter{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		NationalID:     req.NationalID,
		Email:          req.Email,
		Phone:          req.Phone,
		Street:         req.Street,
		District:       req.District,
		PollingStation: req.PollingStation,
		Notes:          req.Notes,
		Support:        req.Support,
		Pledged:        req.Pledged,
		Mobilized:      req.Mobilized,
		Priority:       req.Priority,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.flagDegraded(w, result)
	httpx.JSON(w, http.StatusCreated, toResponse(result.Voter))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	result, err := h.service.Update(r.Context(), actor, id, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.flagDegraded(w, result)
	httpx.JSON(w, http.StatusOK, toResponse(result.Voter))
}

type hasVotedRequest struct {
	HasVoted bool `json:"has_voted"`
}

func (h *Handler) handleSetHasVoted(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req hasVotedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	result, err := h.service.SetHasVoted(r.Context(), actor, id, req.HasVoted)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.flagDegraded(w, result)
	httpx.JSON(w, http.StatusOK, toResponse(result.Voter))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	result, err := h.service.Delete(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.flagDegraded(w, result)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) flagDegraded(w http.ResponseWriter, result MutationResult) {
	if result.AuditDegraded {
		w.Header().Set(AuditDegradedHeader, "true")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
