package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hopper/internal/events"
	"hopper/internal/logging"
	"hopper/internal/media"
	"hopper/internal/notifications"
	"hopper/internal/services"
	"hopper/internal/services/drapto"
)

// Start moves the encoder from Idle to Running and launches the dispatch
// control loop. Valid only once; any other state is rejected.
func (e *Encoder) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle || !isValidTransition(e.state, StateRunning) {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, state)
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateRunning
	e.done = make(chan struct{})
	e.mu.Unlock()

	e.logger.Info("encoder started",
		logging.Int("concurrency", e.concurrency),
		logging.String(logging.FieldEventType, "encoder_started"),
	)
	go e.run(runCtx)
	return nil
}

// run is the dispatch control loop: the single writer for in-flight and
// failed state. It exits once the encoder is stopped and all dispatched work
// has settled.
func (e *Encoder) run(ctx context.Context) {
	defer close(e.done)
	defer e.cancel()

	ctxDone := ctx.Done()
	for {
		e.fillSlots(ctx)
		// The drain check runs every iteration, not just on completions:
		// the last completion can land while Paused, and the resume wake is
		// then the first moment the condition holds while Running.
		e.checkDrain(ctx)
		if e.loopFinished() {
			return
		}
		select {
		case <-ctxDone:
			// Context cancellation is an external stop request. Observe it
			// once; completions from cancelled dispatches still need to be
			// consumed below.
			ctxDone = nil
			e.mu.Lock()
			if e.state != StateStopped {
				e.markStoppedLocked()
			}
			e.mu.Unlock()
		case <-e.wake:
		case c := <-e.completions:
			e.handleCompletion(ctx, c)
		}
	}
}

func (e *Encoder) loopFinished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateStopped && len(e.inFlight) == 0
}

// fillSlots dispatches queued jobs oldest-first until the concurrency limit
// is reached, the queue is empty, or the encoder is no longer running.
func (e *Encoder) fillSlots(ctx context.Context) {
	for {
		e.mu.Lock()
		if e.state != StateRunning || len(e.inFlight) >= e.concurrency {
			e.mu.Unlock()
			return
		}
		job := e.queue.Dequeue()
		if job == nil {
			e.mu.Unlock()
			return
		}
		job.MarkProcessing(time.Now())
		jobCtx, cancel := context.WithCancel(ctx)
		e.inFlight[job.ID] = &dispatchRecord{job: job, cancel: cancel}
		firstOfCycle := !e.queueActive
		if firstOfCycle {
			e.queueActive = true
			e.queueStart = job.StartedAt
		}
		remaining := e.queue.Len() + len(e.inFlight)
		e.mu.Unlock()

		e.bus.Publish(events.Event{
			Type:       events.TypeJobStarted,
			JobID:      job.ID,
			SourcePath: job.SourcePath,
			Title:      job.Title,
		})
		if firstOfCycle {
			e.notifyQueueStarted(ctx, remaining)
		}
		go e.dispatch(jobCtx, cancel, job)
	}
}

// dispatch runs one encode and posts the result to the completions channel.
// The channel is buffered to the concurrency limit so posting never blocks
// even when the control loop is already winding down.
func (e *Encoder) dispatch(ctx context.Context, cancel context.CancelFunc, job *media.VideoJob) {
	defer cancel()

	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithStage(ctx, "encode")
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("dispatching encode",
		logging.String("source", job.SourcePath),
		logging.String("destination", job.Destination),
		logging.String(logging.FieldEventType, "encode_dispatched"),
	)

	outputDir := filepath.Dir(job.Destination)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		e.completions <- completion{job: job, err: services.Wrap(services.ErrConfiguration, "encode", "prepare", "create output directory", err)}
		return
	}

	sampler := logging.NewProgressSampler(10)
	outputPath, err := e.client.Encode(ctx, job.SourcePath, outputDir, drapto.EncodeOptions{
		PresetProfile: job.Options.PresetProfile,
		Progress: func(update drapto.ProgressUpdate) {
			logProgress(logger, sampler, update)
		},
	})
	e.completions <- completion{job: job, outputPath: outputPath, err: err}
}

func logProgress(logger *slog.Logger, sampler *logging.ProgressSampler, update drapto.ProgressUpdate) {
	switch update.Type {
	case drapto.EventTypeEncodingProgress, drapto.EventTypeStageProgress:
		if !sampler.ShouldLog(update.Percent, update.Stage) {
			return
		}
		logger.Info("encode progress",
			logging.Float64(logging.FieldProgressPercent, update.Percent),
			logging.String(logging.FieldProgressStage, update.Stage),
			logging.String(logging.FieldProgressMessage, update.Message),
			logging.Duration(logging.FieldProgressETA, update.ETA),
		)
	case drapto.EventTypeWarning:
		logger.Warn("encoder warning", logging.String("warning", update.Warning), logging.Alert("encode_warning"))
	case drapto.EventTypeError:
		if update.Error != nil {
			logger.Error("encoder reported error",
				logging.String("title", update.Error.Title),
				logging.String("detail", update.Error.Message),
			)
		}
	}
}

// handleCompletion records one settled dispatch. Jobs already failed by a
// stop request stay untouched; terminal statuses are never rewritten.
func (e *Encoder) handleCompletion(ctx context.Context, c completion) {
	e.mu.Lock()
	delete(e.inFlight, c.job.ID)

	alreadyTerminal := c.job.IsTerminal()
	if !alreadyTerminal {
		now := time.Now()
		switch {
		case c.err != nil:
			reason := c.err.Error()
			if services.IsCancellation(c.err) {
				reason = media.StopReason
			}
			c.job.MarkFailed(now, reason)
			e.failed = append(e.failed, c.job)
		default:
			c.job.MarkSucceeded(now)
		}
		e.processed++
	}
	sessionID := e.sessionID
	e.mu.Unlock()

	if alreadyTerminal {
		return
	}

	e.bus.Publish(events.Event{
		Type:       events.TypeJobFinished,
		JobID:      c.job.ID,
		SourcePath: c.job.SourcePath,
		Title:      c.job.Title,
		Message:    c.job.ErrorMessage,
	})

	if c.job.Status == media.StatusFailed {
		e.logger.Error("encode failed",
			logging.Int64(logging.FieldJobID, c.job.ID),
			logging.String("source", c.job.SourcePath),
			logging.String("reason", c.job.ErrorMessage),
			logging.String(logging.FieldEventType, "encode_failed"),
		)
		e.notifyEncodeFailed(ctx, c.job)
	} else {
		e.logger.Info("encode succeeded",
			logging.Int64(logging.FieldJobID, c.job.ID),
			logging.String("source", c.job.SourcePath),
			logging.String("output", c.outputPath),
			logging.Duration("duration", c.job.Duration()),
			logging.String(logging.FieldEventType, "encode_succeeded"),
		)
	}

	if err := e.store.RecordOutcome(ctx, sessionID, c.job); err != nil {
		e.logger.Warn("history record failed",
			logging.Error(err),
			logging.Int64(logging.FieldJobID, c.job.ID),
			logging.String(logging.FieldEventType, "history_record_failed"),
		)
	}
}

// checkDrain fires the queue-finished notification exactly once per active
// cycle: only while Running with nothing pending and nothing in flight.
func (e *Encoder) checkDrain(ctx context.Context) {
	e.mu.Lock()
	if e.state != StateRunning || !e.queueActive || len(e.inFlight) > 0 || !e.queue.IsEmpty() {
		e.mu.Unlock()
		return
	}
	e.queueActive = false
	start := e.queueStart
	e.queueStart = time.Time{}
	processed := e.processed
	failed := e.failedSnapshotLocked()
	e.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	e.logger.Info("queue drained",
		logging.Int("processed", processed),
		logging.Int("failed", len(failed)),
		logging.Duration("duration", duration),
		logging.String(logging.FieldEventType, "queue_finished"),
	)
	e.bus.Publish(events.Event{
		Type:   events.TypeQueueFinished,
		Failed: failed,
	})
	e.notifyQueueCompleted(ctx, processed, len(failed), duration)
}

func (e *Encoder) notifyQueueStarted(ctx context.Context, count int) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": count}); err != nil {
		e.logger.Debug("queue start notification failed", logging.Error(err))
	}
}

func (e *Encoder) notifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
		"duration":  duration,
	}); err != nil {
		e.logger.Debug("queue completion notification failed", logging.Error(err))
	}
}

func (e *Encoder) notifyEncodeFailed(ctx context.Context, job *media.VideoJob) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, notifications.EventEncodeFailed, notifications.Payload{
		"title":  job.Label(),
		"source": job.SourcePath,
		"reason": job.ErrorMessage,
	}); err != nil {
		e.logger.Debug("encode failure notification failed", logging.Error(err))
	}
}
