// Package job owns the in-memory registry of generation jobs: creation,
// the per-job state machine, concurrency-safe reads, and the single
// authoritative terminal write performed by the executing pipeline. Jobs
// live for the process lifetime; there is no persistence or eviction.
package job
