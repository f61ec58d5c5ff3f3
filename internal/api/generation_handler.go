package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flashforge/flashforge-api/internal/api/shared"
	"github.com/flashforge/flashforge-api/internal/domain"
	"github.com/flashforge/flashforge-api/internal/job"
)

// DefaultSyncTimeout bounds a synchronous generation request.
const DefaultSyncTimeout = 60 * time.Second

// JobService is the job registry surface the handlers depend on.
// Satisfied by *job.Registry.
type JobService interface {
	Submit(ctx context.Context, input domain.JobInput) (uuid.UUID, error)
	Status(id uuid.UUID) (job.View, error)
	Await(ctx context.Context, id uuid.UUID) error
}

// GenerationHandler handles flashcard generation HTTP requests
type GenerationHandler struct {
	jobs        JobService
	validator   *validator.Validate
	syncTimeout time.Duration
}

// NewGenerationHandler creates a new GenerationHandler. A non-positive
// syncTimeout falls back to DefaultSyncTimeout.
func NewGenerationHandler(jobs JobService, syncTimeout time.Duration) *GenerationHandler {
	if syncTimeout <= 0 {
		syncTimeout = DefaultSyncTimeout
	}
	return &GenerationHandler{
		jobs:        jobs,
		validator:   validator.New(),
		syncTimeout: syncTimeout,
	}
}

// CreateJob handles POST /api/generate requests. The job is executed in
// the background; the response carries the id to poll.
func (h *GenerationHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	jobID, err := h.jobs.Submit(r.Context(), domain.JobInput{Text: req.Text, UserID: req.UserID})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, JobCreatedResponse{
		JobID:   jobID.String(),
		Status:  string(domain.JobStatusQueued),
		Message: "Job accepted for processing",
	})
}

// GetJobStatus handles GET /api/jobs/{id} requests.
func (h *GenerationHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	view, err := h.jobs.Status(jobID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, viewToStatusResponse(view))
}

// GetJobResult handles GET /api/jobs/{id}/result requests. While the job
// is still queued or processing the endpoint answers 409; a failed job
// answers with a status code derived from its failure kind.
func (h *GenerationHandler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	view, err := h.jobs.Status(jobID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	h.respondWithOutcome(w, r, view)
}

// GenerateSync handles POST /api/generate/sync requests. The request
// goes through the same pipeline as asynchronous jobs but the handler
// waits, bounded by the sync timeout, and returns the outcome directly.
func (h *GenerationHandler) GenerateSync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	jobID, err := h.jobs.Submit(r.Context(), domain.JobInput{Text: req.Text, UserID: req.UserID})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), h.syncTimeout)
	defer cancel()

	if err := h.jobs.Await(waitCtx, jobID); err != nil {
		// The job keeps running; only this wait gave up. The caller can
		// still poll the job endpoints with the returned id.
		status := http.StatusGatewayTimeout
		if !errors.Is(err, context.DeadlineExceeded) {
			status = MapErrorToStatusCode(err)
		}
		shared.RespondWithErrorAndLog(w, r, status, "Generation did not finish in time", err)
		return
	}

	view, err := h.jobs.Status(jobID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	h.respondWithOutcome(w, r, view)
}

// respondWithOutcome writes the terminal outcome captured in a single
// snapshot. A non-terminal snapshot answers 409 with the current status.
func (h *GenerationHandler) respondWithOutcome(w http.ResponseWriter, r *http.Request, view job.View) {
	switch view.Status {
	case domain.JobStatusCompleted:
		shared.RespondWithJSON(w, r, http.StatusOK, viewToResultResponse(view))

	case domain.JobStatusFailed:
		kind := domain.ErrorKindInternal
		message := "Generation failed"
		if view.Error != nil {
			kind = view.Error.Kind
			message = view.Error.Message
		}
		shared.RespondWithJSON(w, r, MapErrorKindToStatusCode(kind), shared.ErrorResponse{
			Error:   message,
			Kind:    string(kind),
			Status:  string(domain.JobStatusFailed),
			TraceID: shared.GetTraceID(r.Context()),
		})

	default:
		shared.RespondWithJSON(w, r, http.StatusConflict, shared.ErrorResponse{
			Error:   "Job result is not ready yet",
			Status:  string(view.Status),
			TraceID: shared.GetTraceID(r.Context()),
		})
	}
}

// decodeGenerateRequest parses and validates a generation request body.
// On failure it writes the error response and returns ok=false.
func (h *GenerationHandler) decodeGenerateRequest(
	w http.ResponseWriter,
	r *http.Request,
) (GenerateRequest, bool) {
	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return GenerateRequest{}, false
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return GenerateRequest{}, false
	}

	return req, true
}

// parseJobID extracts and parses the {id} URL parameter. On failure it
// writes a 400 response and returns ok=false.
func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}

// HandleHealth handles GET /health requests.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
