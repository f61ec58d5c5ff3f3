package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	input := JobInput{Text: "explain goroutine scheduling", UserID: "user-42"}

	job, err := NewJob(input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if job.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if job.Status != JobStatusQueued {
		t.Errorf("Expected status %s, got %s", JobStatusQueued, job.Status)
	}

	if job.Input != input {
		t.Errorf("Expected input %+v, got %+v", input, job.Input)
	}

	if job.Result != nil {
		t.Error("Expected no result on a queued job")
	}

	if job.Error != nil {
		t.Error("Expected no error detail on a queued job")
	}

	if job.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Empty text is rejected before a job exists
	_, err = NewJob(JobInput{Text: ""})
	if err != ErrEmptyJobText {
		t.Errorf("Expected error %v, got %v", ErrEmptyJobText, err)
	}
}

func TestNewJobGeneratesDistinctIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		job, err := NewJob(JobInput{Text: "text"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if seen[job.ID] {
			t.Fatalf("Duplicate job ID issued: %s", job.ID)
		}
		seen[job.ID] = true
	}
}

func TestJobStatusCanTransitionTo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{JobStatusQueued, JobStatusProcessing, true},
		{JobStatusQueued, JobStatusCompleted, false},
		{JobStatusQueued, JobStatusFailed, false},
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusQueued, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusCompleted, JobStatusProcessing, false},
		{JobStatusFailed, JobStatusProcessing, false},
		{JobStatusFailed, JobStatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestJobTransition(t *testing.T) {
	t.Parallel()

	job, err := NewJob(JobInput{Text: "text"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := job.Transition(JobStatusProcessing); err != nil {
		t.Fatalf("Expected queued -> processing to succeed, got %v", err)
	}

	if err := job.Transition(JobStatusCompleted); err != nil {
		t.Fatalf("Expected processing -> completed to succeed, got %v", err)
	}

	// Terminal state is immutable
	if err := job.Transition(JobStatusFailed); err != ErrInvalidJobTransition {
		t.Errorf("Expected %v for transition out of terminal state, got %v", ErrInvalidJobTransition, err)
	}

	// Unknown status is rejected
	if err := job.Transition(JobStatus("paused")); err != ErrInvalidJobStatus {
		t.Errorf("Expected %v for unknown status, got %v", ErrInvalidJobStatus, err)
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if JobStatusQueued.IsTerminal() || JobStatusProcessing.IsTerminal() {
		t.Error("Expected queued and processing to be non-terminal")
	}

	if !JobStatusCompleted.IsTerminal() || !JobStatusFailed.IsTerminal() {
		t.Error("Expected completed and failed to be terminal")
	}
}
