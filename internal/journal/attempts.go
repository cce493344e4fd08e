package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is the terminal state of an attempt.
type Outcome string

const (
	OutcomeRunning     Outcome = "running"
	OutcomeEncoded     Outcome = "encoded"
	OutcomeMerged      Outcome = "merged"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Attempt is one invocation of the job runner for a stem.
type Attempt struct {
	ID            int64      `json:"id" yaml:"id"`
	RunID         string     `json:"run_id" yaml:"run_id"`
	Stem          string     `json:"stem" yaml:"stem"`
	InputPath     string     `json:"input_path,omitempty" yaml:"input_path,omitempty"`
	Decision      string     `json:"decision" yaml:"decision"`
	ResumeFrame   int        `json:"resume_frame" yaml:"resume_frame"`
	TotalFrames   int        `json:"total_frames" yaml:"total_frames"`
	PartOrdinal   int        `json:"part_ordinal" yaml:"part_ordinal"`
	PartPath      string     `json:"part_path,omitempty" yaml:"part_path,omitempty"`
	Discarded     int        `json:"discarded" yaml:"discarded"`
	FramesEncoded int        `json:"frames_encoded" yaml:"frames_encoded"`
	Outcome       Outcome    `json:"outcome" yaml:"outcome"`
	ErrorMessage  string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

const attemptColumns = "id, run_id, stem, input_path, decision, resume_frame, total_frames, part_ordinal, part_path, discarded, frames_encoded, outcome, error_message, started_at, finished_at"

// Begin records a running attempt and returns it with its ID assigned.
func (s *Store) Begin(ctx context.Context, a Attempt) (*Attempt, error) {
	if strings.TrimSpace(a.RunID) == "" || strings.TrimSpace(a.Stem) == "" {
		return nil, errors.New("attempt requires run id and stem")
	}
	a.Outcome = OutcomeRunning
	a.StartedAt = time.Now().UTC()
	a.FinishedAt = nil
	res, err := s.exec(ctx,
		`INSERT INTO attempts (
            run_id, stem, input_path, decision, resume_frame, total_frames,
            part_ordinal, part_path, discarded, frames_encoded, outcome, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID,
		a.Stem,
		nullableString(a.InputPath),
		a.Decision,
		a.ResumeFrame,
		a.TotalFrames,
		a.PartOrdinal,
		nullableString(a.PartPath),
		a.Discarded,
		a.FramesEncoded,
		string(a.Outcome),
		a.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	return &a, nil
}

// Finish stores the terminal outcome of an attempt.
func (s *Store) Finish(ctx context.Context, a *Attempt, outcome Outcome, cause error) error {
	if a == nil {
		return errors.New("attempt is nil")
	}
	now := time.Now().UTC()
	a.Outcome = outcome
	a.FinishedAt = &now
	if cause != nil {
		a.ErrorMessage = cause.Error()
	}
	_, err := s.exec(ctx,
		`UPDATE attempts
         SET outcome = ?, frames_encoded = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		string(outcome),
		a.FramesEncoded,
		nullableString(a.ErrorMessage),
		now.Format(time.RFC3339Nano),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("finish attempt %d: %w", a.ID, err)
	}
	return nil
}

// MarkInterrupted flags running attempts for stem as interrupted. Callers
// must hold the stem lock so no live attempt is affected.
func (s *Store) MarkInterrupted(ctx context.Context, stem string) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE attempts SET outcome = ?, finished_at = ? WHERE stem = ? AND outcome = ?`,
		string(OutcomeInterrupted),
		time.Now().UTC().Format(time.RFC3339Nano),
		stem,
		string(OutcomeRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

// List returns attempts newest first, optionally filtered by stem. A limit
// <= 0 returns every attempt.
func (s *Store) List(ctx context.Context, stem string, limit int) ([]Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts`
	var args []any
	if stem = strings.TrimSpace(stem); stem != "" {
		query += ` WHERE stem = ?`
		args = append(args, stem)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		a           Attempt
		inputPath   sql.NullString
		partPath    sql.NullString
		outcome     string
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&a.ID,
		&a.RunID,
		&a.Stem,
		&inputPath,
		&a.Decision,
		&a.ResumeFrame,
		&a.TotalFrames,
		&a.PartOrdinal,
		&partPath,
		&a.Discarded,
		&a.FramesEncoded,
		&outcome,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	a.InputPath = inputPath.String
	a.PartPath = partPath.String
	a.Outcome = Outcome(outcome)
	a.ErrorMessage = errorMsg.String
	if ts, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		a.StartedAt = ts
	}
	if finishedRaw.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			a.FinishedAt = &ts
		}
	}
	return &a, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
