package jobs

import (
	"strconv"

	"github.com/getevo/evo/v2"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

// GetJobs returns all registered jobs
// GET /api/admin/jobs
func GetJobs(request *evo.Request) any {
	s := GetScheduler()
	if s == nil {
		return response.OK([]JobDefinition{})
	}
	return response.OK(s.GetJobs())
}

// GetJobExecutions returns recent executions, optionally filtered by job name
// GET /api/admin/jobs/executions
func GetJobExecutions(request *evo.Request) any {
	jobName := request.Query("job").String()
	limit := 20
	if raw := request.Query("limit").String(); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	executions, err := GetRecentExecutions(jobName, limit)
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	return response.OK(executions)
}

// RunJob triggers immediate execution of a job
// POST /api/admin/jobs/:name/run
func RunJob(request *evo.Request) any {
	s := GetScheduler()
	if s == nil {
		return response.Error(response.ErrInternalError)
	}

	name := request.Param("name").String()
	if err := s.RunNow(name); err != nil {
		return response.Error(response.ErrNotFound)
	}

	return response.Message("job triggered")
}
