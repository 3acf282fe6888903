package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/ratelimit"
	"github.com/ternarybob/pulse/internal/services/audit"
	"github.com/ternarybob/pulse/internal/services/failover"
	"github.com/ternarybob/pulse/internal/services/outbound"
	"github.com/ternarybob/pulse/internal/services/scheduler"
	syncsvc "github.com/ternarybob/pulse/internal/services/sync"
	"github.com/ternarybob/pulse/internal/storage/badger"
)

// Dependencies are the external collaborators the orchestration core runs
// against. GraphClient and CredentialStore come from the embedding platform;
// when GraphClient is nil the sync cycles are not registered. A nil AuditSink
// falls back to the structured-log sink.
type Dependencies struct {
	GraphClient     interfaces.GraphClient
	CredentialStore interfaces.CredentialStore
	AuditSink       interfaces.AuditSink
}

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Breaker          *ratelimit.Breaker
	SyncService      *syncsvc.Service
	OutboundService  *outbound.Service
	OutboundWorker   *outbound.Worker
	FailoverMonitor  *failover.Monitor
	SchedulerService interfaces.SchedulerService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger, deps Dependencies) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager
	logger.Debug().
		Str("storage", "badger").
		Str("path", cfg.Storage.Badger.Path).
		Msg("Storage layer initialized")

	if deps.AuditSink == nil {
		deps.AuditSink = audit.NewLogSink(logger)
	}

	app.Breaker = ratelimit.NewBreaker(logger)

	app.OutboundService = outbound.NewService(storageManager.QueueStorage(), &cfg.Outbound, logger)
	app.OutboundWorker = outbound.NewWorker(app.OutboundService, logger)

	app.FailoverMonitor = failover.NewMonitor(
		storageManager,
		app.OutboundService,
		deps.AuditSink,
		&cfg.Failover,
		scheduleInterval(cfg.Scheduler.HeartbeatSchedule),
		logger,
	)

	if deps.GraphClient != nil {
		if deps.CredentialStore == nil {
			return nil, fmt.Errorf("credential store is required when a graph client is configured")
		}
		app.SyncService = syncsvc.NewService(
			storageManager,
			deps.GraphClient,
			deps.CredentialStore,
			deps.AuditSink,
			app.Breaker,
			&cfg.Sync,
			logger,
		)
	} else {
		logger.Warn().Msg("No graph client configured, sync cycles disabled")
	}

	app.SchedulerService = scheduler.NewService(logger)

	if cfg.Scheduler.Enabled {
		if err := app.registerJobs(); err != nil {
			return nil, err
		}
	} else {
		logger.Info().Msg("Scheduler disabled by configuration, no jobs registered")
	}

	logger.Info().
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// registerJobs wires the cron jobs. A job whose schedule fails validation is
// logged and skipped; the remaining jobs still register.
func (a *App) registerJobs() error {
	register := func(name, schedule string, handler func() error) {
		if err := a.SchedulerService.RegisterJob(name, schedule, handler); err != nil {
			a.Logger.Error().
				Err(err).
				Str("job_name", name).
				Str("schedule", schedule).
				Msg("Job not registered")
		}
	}

	register("heartbeat_failover", a.Config.Scheduler.HeartbeatSchedule, func() error {
		return a.FailoverMonitor.Run(context.Background())
	})

	if a.SyncService != nil {
		register("engagement_sync", a.Config.Scheduler.EngagementSchedule, func() error {
			return a.SyncService.RunEngagement(context.Background())
		})
		register("ugc_sync", a.Config.Scheduler.UGCSchedule, func() error {
			return a.SyncService.RunUGC(context.Background())
		})
		register("insights_sync", a.Config.Scheduler.InsightsSchedule, func() error {
			return a.SyncService.RunInsights(context.Background())
		})
	}

	return nil
}

// Start begins the scheduler and the outbound delivery worker
func (a *App) Start() error {
	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if a.OutboundWorker.HandlerCount() > 0 {
		if err := a.OutboundWorker.Start(); err != nil {
			return fmt.Errorf("failed to start outbound worker: %w", err)
		}
	} else {
		a.Logger.Warn().Msg("No action handlers registered, outbound delivery worker idle")
	}

	return nil
}

// Close closes all application resources. The scheduler stops first so no new
// cycle starts against a closing store; in-flight runs finish cooperatively.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.OutboundWorker != nil && a.OutboundWorker.HandlerCount() > 0 {
		if err := a.OutboundWorker.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop outbound worker")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}

// scheduleInterval derives the gap between two consecutive fires of a cron
// expression, used as the expected agent beat interval.
func scheduleInterval(schedule string) time.Duration {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return 5 * time.Minute
	}
	now := time.Now()
	first := sched.Next(now)
	return sched.Next(first).Sub(first)
}
