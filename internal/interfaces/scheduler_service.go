package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string
	Enabled   bool
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService owns every cron timer in the process. Constructed at
// startup, torn down via Stop; tests can start and stop an isolated instance.
type SchedulerService interface {
	// RegisterJob validates the schedule and adds the job. An invalid
	// expression fails this job only.
	RegisterJob(name string, schedule string, handler func() error) error

	// Start begins firing registered jobs.
	Start() error

	// Stop halts all timers. Must be invoked before other resources are
	// released during shutdown; in-flight runs finish cooperatively.
	Stop() error

	// TriggerJob manually runs a job outside its schedule.
	TriggerJob(name string) error

	IsRunning() bool
	GetJobStatus(name string) (*JobStatus, error)
	GetAllJobStatuses() map[string]*JobStatus
}
