package jobs

import (
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
)

// RegisterAllJobs registers the maintenance jobs with the scheduler
func RegisterAllJobs(s *Scheduler) {
	jobs := []JobDefinition{
		{
			Name:        "request-log-retention",
			Description: "Removes request log rows that have aged out of the rate limit window",
			Schedule:    settings.Get("JOBS.REQUEST_LOG_SCHEDULE", "0 0 3 * * *").String(),
			Timeout:     5 * time.Minute,
			Handler:     PurgeRequestLogs,
			Enabled:     settings.Get("JOBS.REQUEST_LOG_ENABLED", true).Bool(),
		},
		{
			Name:        "webhook-delivery-retention",
			Description: "Removes old webhook delivery records",
			Schedule:    settings.Get("JOBS.DELIVERY_SCHEDULE", "0 30 3 * * *").String(),
			Timeout:     5 * time.Minute,
			Handler:     PurgeWebhookDeliveries,
			Enabled:     settings.Get("JOBS.DELIVERY_ENABLED", true).Bool(),
		},
		{
			Name:        "job-execution-retention",
			Description: "Removes old job execution records",
			Schedule:    settings.Get("JOBS.EXECUTION_SCHEDULE", "0 0 4 * * *").String(),
			Timeout:     time.Minute,
			Handler:     PurgeJobExecutions,
			Enabled:     true,
		},
	}

	for _, job := range jobs {
		if err := s.RegisterJob(job); err != nil {
			log.Error("Failed to register job %s: %v", job.Name, err)
		}
	}
}

// PurgeRequestLogs deletes request log rows older than twice the rate limit
// window. The margin keeps rows that a policy with a recently widened window
// could still count.
func PurgeRequestLogs() (int64, error) {
	window, err := settings.Get("LIMITER.WINDOW", "168h").Duration()
	if err != nil {
		window = 168 * time.Hour
	}
	cutoff := time.Now().Add(-2 * window)

	result := db.Where("created_at < ?", cutoff).Delete(&models.RequestLog{})
	return result.RowsAffected, result.Error
}

// PurgeWebhookDeliveries deletes webhook delivery records past the retention period
func PurgeWebhookDeliveries() (int64, error) {
	retention, err := settings.Get("JOBS.DELIVERY_RETENTION", "720h").Duration()
	if err != nil {
		retention = 720 * time.Hour
	}
	cutoff := time.Now().Add(-retention)

	result := db.Where("created_at < ?", cutoff).Delete(&models.WebhookDelivery{})
	return result.RowsAffected, result.Error
}

// PurgeJobExecutions deletes execution history older than 30 days
func PurgeJobExecutions() (int64, error) {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	result := db.Where("started_at < ?", cutoff).Delete(&JobExecution{})
	return result.RowsAffected, result.Error
}
