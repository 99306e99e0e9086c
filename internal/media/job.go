package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Status represents the lifecycle of a video job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// StopReason is the error message recorded when jobs are failed due to a stop request.
const StopReason = "stopped before completion"

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusSucceeded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// IsTerminal reports whether the status is final. Terminal jobs are never
// mutated again.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// EncodeOptions is the per-job snapshot of encode settings taken at enqueue
// time, so configuration changes never retroactively affect queued work.
type EncodeOptions struct {
	PresetProfile string
}

// VideoJob represents one video file moving through the encode pipeline.
// SourcePath is the job's identity and never changes after creation.
type VideoJob struct {
	ID           int64
	SourcePath   string
	Destination  string
	Title        string
	Options      EncodeOptions
	Status       Status
	ErrorMessage string
	EnqueuedAt   time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Label returns the human-readable identifier used in logs and notifications.
func (j *VideoJob) Label() string {
	if j == nil {
		return ""
	}
	if strings.TrimSpace(j.Title) != "" {
		return j.Title
	}
	return filepath.Base(j.SourcePath)
}

// IsTerminal reports whether the job has reached a final status.
func (j *VideoJob) IsTerminal() bool {
	return j != nil && j.Status.IsTerminal()
}

// MarkProcessing flags the job as picked up by a worker.
func (j *VideoJob) MarkProcessing(now time.Time) {
	j.Status = StatusProcessing
	j.StartedAt = now
}

// MarkSucceeded finalizes the job as successful and clears any error message.
func (j *VideoJob) MarkSucceeded(now time.Time) {
	j.Status = StatusSucceeded
	j.ErrorMessage = ""
	j.FinishedAt = now
}

// MarkFailed finalizes the job with the given failure reason.
func (j *VideoJob) MarkFailed(now time.Time, message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.FinishedAt = now
}

// Duration returns the processing time for finished jobs and zero otherwise.
func (j *VideoJob) Duration() time.Duration {
	if j == nil || j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
