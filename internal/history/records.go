package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hopper/internal/media"
)

// Session is one batch or watch run.
type Session struct {
	ID         int64
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Processed  int
	Failed     int
}

// Outcome is the terminal record of one video within a session.
type Outcome struct {
	ID            int64
	SessionID     int64
	SourcePath    string
	Destination   string
	Title         string
	Status        media.Status
	ErrorMessage  string
	PresetProfile string
	EnqueuedAt    time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
}

// BeginSession inserts a session row and returns its identifier.
func (s *Store) BeginSession(ctx context.Context, runID, mode string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (run_id, mode, started_at) VALUES (?, ?, ?)`,
		runID,
		mode,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishSession stamps the session with its end time and totals.
func (s *Store) FinishSession(ctx context.Context, sessionID int64, processed, failed int) error {
	if s == nil || s.db == nil || sessionID == 0 {
		return nil
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET finished_at = ?, processed = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		processed,
		failed,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// RecordOutcome appends the terminal state of one video to the session.
func (s *Store) RecordOutcome(ctx context.Context, sessionID int64, job *media.VideoJob) error {
	if s == nil || s.db == nil {
		return nil
	}
	if job == nil {
		return errors.New("job is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO outcomes (
            session_id, source_path, destination, title, status,
            error_message, preset_profile, enqueued_at, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		job.SourcePath,
		nullableString(job.Destination),
		nullableString(job.Title),
		string(job.Status),
		nullableString(job.ErrorMessage),
		nullableString(job.Options.PresetProfile),
		timeValue(job.EnqueuedAt),
		timeValue(job.StartedAt),
		timeValue(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

const outcomeColumns = "id, session_id, source_path, destination, title, status, error_message, preset_profile, enqueued_at, started_at, finished_at"

func scanOutcome(scanner interface{ Scan(dest ...any) error }) (Outcome, error) {
	var (
		id            int64
		sessionID     int64
		sourcePath    string
		destination   sql.NullString
		title         sql.NullString
		statusStr     string
		errorMessage  sql.NullString
		presetProfile sql.NullString
		enqueuedRaw   sql.NullString
		startedRaw    sql.NullString
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&sessionID,
		&sourcePath,
		&destination,
		&title,
		&statusStr,
		&errorMessage,
		&presetProfile,
		&enqueuedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		ID:            id,
		SessionID:     sessionID,
		SourcePath:    sourcePath,
		Destination:   destination.String,
		Title:         title.String,
		Status:        media.Status(statusStr),
		ErrorMessage:  errorMessage.String,
		PresetProfile: presetProfile.String,
	}
	if t, err := parseTimeString(enqueuedRaw.String); err == nil {
		outcome.EnqueuedAt = t
	}
	if t, err := parseTimeString(startedRaw.String); err == nil {
		outcome.StartedAt = t
	}
	if t, err := parseTimeString(finishedRaw.String); err == nil {
		outcome.FinishedAt = t
	}
	return outcome, nil
}

// RecentOutcomes returns the newest outcome rows, most recent first.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+outcomeColumns+` FROM outcomes ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// RecentSessions returns the newest session rows, most recent first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, run_id, mode, started_at, finished_at, processed, failed
         FROM sessions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session     Session
			startedRaw  string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(
			&session.ID,
			&session.RunID,
			&session.Mode,
			&startedRaw,
			&finishedRaw,
			&session.Processed,
			&session.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if t, err := parseTimeString(startedRaw); err == nil {
			session.StartedAt = t
		}
		if finishedRaw.Valid {
			if t, err := parseTimeString(finishedRaw.String); err == nil {
				session.FinishedAt = &t
			}
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
