// Package encoder drives consumption of the in-memory job queue against the
// Drapto backend. It owns the run/pause/resume/stop state machine, the bounded
// set of in-flight encodes, and the failed-video list reported when the queue
// drains.
package encoder
