package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/flashforge/flashforge-api/internal/domain"
	"github.com/flashforge/flashforge-api/internal/job"
	"github.com/flashforge/flashforge-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes. Failed jobs carry a *domain.JobError whose kind decides the
// code; registry and queue errors get their own mappings. This prevents
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	var jobErr *domain.JobError
	if errors.As(err, &jobErr) {
		return MapErrorKindToStatusCode(jobErr.Kind)
	}

	switch {
	case errors.Is(err, job.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, job.ErrNotReady):
		return http.StatusConflict

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrEmptyJobText):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// MapErrorKindToStatusCode maps a terminal job failure kind to the HTTP
// status code the result endpoints report.
func MapErrorKindToStatusCode(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorKindInvalidInput:
		return http.StatusBadRequest
	case domain.ErrorKindTransport, domain.ErrorKindUnparseable:
		return http.StatusBadGateway
	case domain.ErrorKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. Job failure messages are already structured
// and safe to surface; everything else collapses to a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var jobErr *domain.JobError
	if errors.As(err, &jobErr) {
		return jobErr.Message
	}

	switch {
	case errors.Is(err, job.ErrNotFound):
		return "Job not found"

	case errors.Is(err, job.ErrNotReady):
		return "Job result is not ready yet"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Service is at capacity, try again later"

	case errors.Is(err, domain.ErrEmptyJobText):
		return "Input text cannot be empty"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'GenerateRequest.Text' Error:Field validation
	// for 'Text' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}
