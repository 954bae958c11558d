package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler manages background job scheduling and execution
type Scheduler struct {
	cron      *cron.Cron
	jobs      map[string]*JobDefinition
	running   map[string]bool
	mu        sync.Mutex
	isRunning bool
}

var (
	scheduler *Scheduler
	once      sync.Once
)

// GetScheduler returns the singleton scheduler instance
func GetScheduler() *Scheduler {
	return scheduler
}

// NewScheduler creates the job scheduler
func NewScheduler() *Scheduler {
	once.Do(func() {
		scheduler = &Scheduler{
			cron: cron.New(cron.WithSeconds(), cron.WithChain(
				cron.Recover(cron.DefaultLogger),
			)),
			jobs:    make(map[string]*JobDefinition),
			running: make(map[string]bool),
		}
	})
	return scheduler
}

// RegisterJob registers a new job with the scheduler
func (s *Scheduler) RegisterJob(job JobDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !job.Enabled {
		log.Info("Job %s is disabled, skipping registration", job.Name)
		return nil
	}

	s.jobs[job.Name] = &job

	_, err := s.cron.AddFunc(job.Schedule, func() {
		s.runJob(job.Name)
	})
	if err != nil {
		return err
	}

	log.Info("Registered job: %s (schedule: %s)", job.Name, job.Schedule)
	return nil
}

// runJob executes a job, skipping if a previous run is still in flight
func (s *Scheduler) runJob(jobName string) {
	s.mu.Lock()
	job, exists := s.jobs[jobName]
	if !exists {
		s.mu.Unlock()
		log.Error("Job not found: %s", jobName)
		return
	}
	if s.running[jobName] {
		s.mu.Unlock()
		log.Debug("Job %s is already running, skipping", jobName)
		return
	}
	s.running[jobName] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[jobName] = false
		s.mu.Unlock()
	}()

	execution := &JobExecution{
		ID:        uuid.New(),
		JobName:   jobName,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
	}
	if err := db.Create(execution).Error; err != nil {
		log.Error("Failed to create job execution record: %v", err)
		return
	}

	log.Info("Starting job: %s (execution: %s)", jobName, execution.ID)

	var processed int64
	var jobErr error
	if job.Timeout > 0 {
		processed, jobErr = runWithTimeout(job.Handler, job.Timeout)
	} else {
		processed, jobErr = job.Handler()
	}

	now := time.Now()
	execution.CompletedAt = &now
	execution.DurationMs = now.Sub(execution.StartedAt).Milliseconds()
	execution.RecordsProcessed = processed

	if jobErr != nil {
		execution.Status = JobStatusFailed
		execution.Error = jobErr.Error()
		log.Error("Job %s failed: %v", jobName, jobErr)
	} else {
		execution.Status = JobStatusCompleted
		log.Info("Job %s completed (processed: %d, duration: %dms)",
			jobName, processed, execution.DurationMs)
	}

	if err := db.Save(execution).Error; err != nil {
		log.Error("Failed to update job execution record: %v", err)
	}
}

// runWithTimeout executes a job handler with a deadline
func runWithTimeout(handler JobHandler, timeout time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type result struct {
		processed int64
		err       error
	}
	done := make(chan result, 1)
	go func() {
		processed, err := handler()
		done <- result{processed, err}
	}()

	select {
	case r := <-done:
		return r.processed, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	s.cron.Start()
	s.isRunning = true
	log.Info("Job scheduler started with %d jobs", len(s.jobs))
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Info("Job scheduler stopped")
}

// RunNow triggers immediate execution of a job
func (s *Scheduler) RunNow(jobName string) error {
	s.mu.Lock()
	_, exists := s.jobs[jobName]
	s.mu.Unlock()

	if !exists {
		return errors.New("job not found: " + jobName)
	}

	go s.runJob(jobName)
	return nil
}

// GetJobs returns all registered job definitions
func (s *Scheduler) GetJobs() []JobDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]JobDefinition, 0, len(s.jobs))
	for _, v := range s.jobs {
		result = append(result, *v)
	}
	return result
}

// GetRecentExecutions returns recent job executions, newest first
func GetRecentExecutions(jobName string, limit int) ([]JobExecution, error) {
	var executions []JobExecution

	query := db.Model(&JobExecution{}).Order("started_at DESC").Limit(limit)
	if jobName != "" {
		query = query.Where("job_name = ?", jobName)
	}

	if err := query.Find(&executions).Error; err != nil {
		return nil, err
	}

	return executions, nil
}
