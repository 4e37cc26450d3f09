// ABOUTME: Job queue backed by job_queue with FOR UPDATE SKIP LOCKED claiming.
// ABOUTME: Failed jobs retry with exponential backoff until max_attempts, then go dead.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Job is a claimed job ready for execution by the worker pool.
type Job struct {
	ID       uuid.UUID
	Queue    string
	Payload  json.RawMessage
	Attempts int32
}

// EnqueueJob inserts a new job into the named queue and returns its ID.
// runAfter defaults to now() when nil.
func (s *Store) EnqueueJob(ctx context.Context, queue string, priority int32, payload json.RawMessage, maxAttempts int32, runAfter *time.Time) (uuid.UUID, error) {
	ra := time.Now()
	if runAfter != nil {
		ra = *runAfter
	}
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO job_queue (queue, priority, payload, max_attempts, run_after)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		queue, priority, payload, maxAttempts, ra,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue job: %w", err)
	}
	return id, nil
}

// ClaimJob atomically claims one pending job from the named queue for the
// given workerID using FOR UPDATE SKIP LOCKED. Returns (nil, nil) when no
// job is currently available.
func (s *Store) ClaimJob(ctx context.Context, queue, workerID string) (*Job, error) {
	var job Job
	err := s.pool.QueryRow(ctx,
		`UPDATE job_queue
		 SET status = 'running',
		     attempts = attempts + 1,
		     locked_by = $2,
		     locked_at = now(),
		     updated_at = now()
		 WHERE id = (
		     SELECT id FROM job_queue
		     WHERE queue = $1 AND status = 'pending' AND run_after <= now()
		     ORDER BY priority DESC, run_after
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, queue, payload, attempts`,
		queue, workerID,
	).Scan(&job.ID, &job.Queue, &job.Payload, &job.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return &job, nil
}

// CompleteJob marks a job as succeeded.
func (s *Store) CompleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_queue
		 SET status = 'succeeded', locked_by = NULL, locked_at = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return nil
}

// FailJob marks a job as failed, applying exponential backoff for retry or
// moving it to 'dead' status if max_attempts is exhausted.
func (s *Store) FailJob(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_queue
		 SET status = CASE WHEN attempts >= max_attempts THEN 'dead' ELSE 'pending' END,
		     run_after = now() + (interval '30 seconds' * power(2, attempts)),
		     last_error = $2,
		     locked_by = NULL,
		     locked_at = NULL,
		     updated_at = now()
		 WHERE id = $1`,
		id, errMsg,
	)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

// RecoverStaleJobs resets jobs stuck in 'running' state longer than staleAfter
// back to 'pending'. Returns the number of jobs recovered.
func (s *Store) RecoverStaleJobs(ctx context.Context, staleAfter time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_queue
		 SET status = 'pending', locked_by = NULL, locked_at = NULL, updated_at = now()
		 WHERE status = 'running' AND locked_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(staleAfter.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("recover stale jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
