// Package events provides types and interfaces for job lifecycle events.
//
// The job registry emits an event whenever a job is submitted or reaches a
// terminal state. Handlers register with an emitter and observe the job
// stream without the registry knowing who is listening, which keeps side
// concerns (audit logging, future notification fan-out) out of the job
// execution path.
//
// The primary components are:
// - JobEvent: A snapshot of one job lifecycle transition
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
