package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hrsaas/internal/platform/querier"
)

const (
	JobEmail            = "notification_email"
	JobPlanExpiry       = "plan_expiry"
	JobIdempotencyPurge = "idempotency_purge"
)

// Run statuses stored in job_runs.status.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type RunFunc = func(context.Context) (any, error)

// Service runs queued and scheduled background work on one worker and
// records each run in job_runs. A nil DB skips the bookkeeping.
type Service struct {
	DB querier.Querier

	queue     chan job
	mu        sync.Mutex
	schedules []schedule
}

type job struct {
	Type    string
	OwnerID string
	Run     RunFunc
}

type schedule struct {
	Type     string
	Interval time.Duration
	Run      RunFunc
}

func New(db querier.Querier) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, 128),
	}
}

// Every registers a job to be queued once per interval after Start.
// Non-positive intervals are ignored.
func (s *Service) Every(jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule{Type: jobType, Interval: interval, Run: run})
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.schedules {
		go s.tick(ctx, sc)
	}
}

func (s *Service) Enqueue(jobType, ownerID string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, OwnerID: ownerID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "ownerId", ownerID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, ownerID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, OwnerID: ownerID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "ownerId", j.OwnerID, "err", err)
			}
		}
	}
}

func (s *Service) tick(ctx context.Context, sc schedule) {
	ticker := time.NewTicker(sc.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sc.Type, "", sc.Run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (owner_id, job_type, status)
      VALUES ($1,$2,$3)
      RETURNING id
    `, j.OwnerID, j.Type, StatusRunning).Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	if runID == "" {
		return details, err
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "err", updErr)
	}
	return details, err
}
