package domain

// ErrorKind classifies why a generation job failed. The kind is the only
// failure detail callers branch on; the message is human context.
type ErrorKind string

// Failure classification for terminal job errors.
const (
	// ErrorKindInvalidInput marks a caller error rejected before a job is
	// created (empty or malformed request).
	ErrorKindInvalidInput ErrorKind = "invalid_input"

	// ErrorKindTransport marks exhausted attempts to reach the remote
	// generation service or get a usable response from it.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindUnparseable marks model output that no repair strategy
	// could coerce into valid flashcards.
	ErrorKindUnparseable ErrorKind = "unparseable"

	// ErrorKindTimeout marks a pipeline run that exceeded its time budget.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindInternal marks any unanticipated failure inside the
	// pipeline, including recovered panics.
	ErrorKindInternal ErrorKind = "internal"
)

// JobError is the structured failure info carried by a failed job.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// NewJobError creates a JobError with the given kind and message.
func NewJobError(kind ErrorKind, message string) *JobError {
	return &JobError{Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return string(e.Kind) + ": " + e.Message
}
