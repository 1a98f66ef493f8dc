package incidents

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opspulse/incident-desk/internal/domain"
	"github.com/opspulse/incident-desk/internal/pkg/httputil"
	"golang.org/x/time/rate"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service    *Service
	validator  *validator.Validate
	genLimiter *rate.Limiter
}

// NewHandler creates a new incidents handler. genLimiter throttles artifact
// generation (the collaborator is slow and billed per call); nil disables
// throttling.
func NewHandler(service *Service, genLimiter *rate.Limiter) *Handler {
	return &Handler{
		service:    service,
		validator:  validator.New(),
		genLimiter: genLimiter,
	}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Delete("/{id}", h.DeleteIncident)
		r.Patch("/{id}/status", h.ChangeStatus)
		r.Post("/{id}/reopen", h.ReopenIncident)
		r.Post("/{id}/notes", h.AppendNote)
		r.Post("/{id}/artifacts", h.GenerateArtifact)
	})

	r.Get("/metrics", h.GetMetrics)
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	ID          string `json:"id" validate:"required,max=128"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Severity    string `json:"severity" validate:"required"`
}

// ChangeStatusRequest represents the request body for a status change.
// Status is deliberately not constrained here: unknown values are coerced
// to Open by the service.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AppendNoteRequest represents the request body for appending a note.
type AppendNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// GenerateArtifactRequest represents the request body for generating an
// AI artifact.
type GenerateArtifactRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	collection, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, collection)
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Create(r.Context(), CreateIncidentInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// DeleteIncident handles DELETE /incidents/{id}. Idempotent: deleting an
// absent incident succeeds.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles PATCH /incidents/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// ReopenIncident handles POST /incidents/{id}/reopen. Reopening is modeled
// as a transition to Investigating.
func (h *Handler) ReopenIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), string(domain.StatusInvestigating))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// AppendNote handles POST /incidents/{id}/notes.
func (h *Handler) AppendNote(w http.ResponseWriter, r *http.Request) {
	var req AppendNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.AppendNote(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// GenerateArtifact handles POST /incidents/{id}/artifacts.
func (h *Handler) GenerateArtifact(w http.ResponseWriter, r *http.Request) {
	var req GenerateArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if h.genLimiter != nil && !h.genLimiter.Allow() {
		httputil.Error(w, http.StatusTooManyRequests, "artifact generation rate limit exceeded")
		return
	}

	artifact, err := h.service.GenerateArtifact(r.Context(), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, artifact)
}

// GetMetrics handles GET /metrics: derived statistics over the collection.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Metrics(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, stats)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrValidation, Status: http.StatusBadRequest},
		{Error: ErrNotFound, Status: http.StatusNotFound},
		{Error: ErrConflict, Status: http.StatusConflict},
		{Error: ErrGeneration, Status: http.StatusBadGateway},
	})
}
