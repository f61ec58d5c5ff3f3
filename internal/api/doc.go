// Package api implements the HTTP handlers for the flashcard generation
// service. Handlers decode and validate requests, delegate to the job
// registry, and translate outcomes into JSON responses with status codes
// derived from the job's failure kind.
package api
