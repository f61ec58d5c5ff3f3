// Package task provides the in-process background execution machinery: a
// buffered task queue and a fixed pool of worker goroutines that drain
// it. Submission never blocks on task work; a full queue is a submit-time
// error. Tasks are held only in memory for the process lifetime.
package task
