// Package domain contains the core business entities and domain logic of
// the application: generation jobs, their lifecycle state machine, and the
// flashcards a job produces. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
