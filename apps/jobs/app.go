package jobs

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/vidbriefs/vidbriefs-backend/apps/system"
)

type App struct{}

var _ application.Application = (*App)(nil)

func (App) Register() error {
	db.UseModel(JobExecution{})
	return nil
}

func (App) Router() error {
	var systemController system.Controller

	evo.Use("/api/admin/jobs", systemController.AdminMiddleware)

	var admin = evo.Group("/api/admin/jobs")
	admin.Get("/", GetJobs)
	admin.Get("/executions", GetJobExecutions)
	admin.Post("/:name/run", RunJob)
	return nil
}

// WhenReady starts the scheduler once every app has registered its models
func (App) WhenReady() error {
	if !settings.Get("JOBS.ENABLED", true).Bool() {
		log.Info("Jobs are disabled, skipping scheduler initialization")
		return nil
	}

	s := NewScheduler()
	RegisterAllJobs(s)
	s.Start()

	return nil
}

func (App) Shutdown() error {
	if scheduler != nil {
		scheduler.Stop()
	}
	return nil
}

func (App) Name() string {
	return "jobs"
}
