package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

// Possible job status values. Transitions are strictly monotonic:
// queued -> processing -> completed|failed. Terminal states never change.
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID           = errors.New("job ID cannot be empty")
	ErrEmptyJobText         = errors.New("job input text cannot be empty")
	ErrInvalidJobStatus     = errors.New("invalid job status")
	ErrInvalidJobTransition = errors.New("invalid job status transition")
)

// JobInput carries the immutable request data a job was created with.
type JobInput struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// Job represents one tracked flashcard-generation request. The record is
// created in queued state by submission and mutated exclusively by the
// pipeline executing it. Exactly one of Result/Error is set, and only in
// the matching terminal state.
type Job struct {
	ID             uuid.UUID     `json:"id"`
	Status         JobStatus     `json:"status"`
	Input          JobInput      `json:"input"`
	Progress       string        `json:"progress,omitempty"`
	Result         FlashcardSet  `json:"result,omitempty"`
	Error          *JobError     `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ProcessingTime time.Duration `json:"processing_time,omitempty"`
}

// NewJob creates a new Job in queued state with a fresh UUID.
// Returns an error if validation fails.
func NewJob(input JobInput) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		Status:    JobStatusQueued,
		Input:     input,
		Progress:  "job created",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.Input.Text == "" {
		return ErrEmptyJobText
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic state machine.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Transition moves the job to the next status, updating UpdatedAt.
// Returns ErrInvalidJobTransition if the move violates the state machine.
func (j *Job) Transition(next JobStatus) error {
	if !isValidJobStatus(next) {
		return ErrInvalidJobStatus
	}

	if !j.Status.CanTransitionTo(next) {
		return ErrInvalidJobTransition
	}

	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
