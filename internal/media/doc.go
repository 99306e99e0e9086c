// Package media defines the video job model and the in-memory job queue.
//
// A VideoJob is created at submission time with its source path, computed
// destination, and a snapshot of the encode options; the source path is the
// job's identity and the queue guarantees no two non-terminal jobs share one.
// Queue state is intentionally not persisted — a restart begins empty, and the
// history package records finished outcomes separately.
package media
