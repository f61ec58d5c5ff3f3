package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrTransport is wrapped by ModelClient implementations when the
	// remote service cannot be reached or returns an unusable response.
	ErrTransport = errors.New("model backend transport failure")

	// ErrContentBlocked is returned when the model blocks the content due
	// to safety filters. Treated as a transport-class failure by the
	// pipeline since a retry may succeed with a different sample.
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrEmptyPrompt is returned when a generation request carries no text.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrInvalidConfig is returned when a client or pipeline configuration
	// is invalid.
	ErrInvalidConfig = errors.New("invalid generation configuration")
)
