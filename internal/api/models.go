package api

import (
	"time"

	"github.com/flashforge/flashforge-api/internal/domain"
	"github.com/flashforge/flashforge-api/internal/job"
)

// GenerateRequest represents the request body for submitting text for
// flashcard generation.
type GenerateRequest struct {
	Text   string `json:"text"   validate:"required,min=1"`
	UserID string `json:"user_id,omitempty"`
}

// JobCreatedResponse is returned when a generation job is accepted.
type JobCreatedResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse represents the polling view of a job.
type JobStatusResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Progress  string    `json:"progress,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlashcardResponse represents a single generated flashcard.
type FlashcardResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// JobResultResponse represents the outcome of a completed job.
type JobResultResponse struct {
	JobID          string              `json:"job_id"`
	Status         string              `json:"status"`
	Flashcards     []FlashcardResponse `json:"flashcards"`
	CardCount      int                 `json:"card_count"`
	ProcessingTime float64             `json:"processing_time"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// viewToStatusResponse converts a job.View to a JobStatusResponse
func viewToStatusResponse(view job.View) JobStatusResponse {
	return JobStatusResponse{
		JobID:     view.ID.String(),
		Status:    string(view.Status),
		Progress:  view.Progress,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}
}

// viewToResultResponse converts a completed job.View to a JobResultResponse.
// ProcessingTime is reported in seconds.
func viewToResultResponse(view job.View) JobResultResponse {
	cards := make([]FlashcardResponse, 0, len(view.Result))
	for _, card := range view.Result {
		cards = append(cards, FlashcardResponse{
			Question: card.Question,
			Answer:   card.Answer,
		})
	}

	return JobResultResponse{
		JobID:          view.ID.String(),
		Status:         string(domain.JobStatusCompleted),
		Flashcards:     cards,
		CardCount:      len(cards),
		ProcessingTime: view.ProcessingTime.Seconds(),
	}
}
