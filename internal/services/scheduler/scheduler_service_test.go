package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestRegisterJobRejectsInvalidSchedule(t *testing.T) {
	service := NewService(arbor.NewLogger())

	err := service.RegisterJob("bad", "not a cron expr", func() error { return nil })
	assert.Error(t, err)

	// A bad expression does not poison the scheduler for other jobs
	err = service.RegisterJob("good", "*/5 * * * *", func() error { return nil })
	require.NoError(t, err)

	status, err := service.GetJobStatus("good")
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	_, err = service.GetJobStatus("bad")
	assert.Error(t, err)
}

func TestRegisterJobRejectsDuplicate(t *testing.T) {
	service := NewService(arbor.NewLogger())

	require.NoError(t, service.RegisterJob("sync", "*/10 * * * *", func() error { return nil }))
	assert.Error(t, service.RegisterJob("sync", "*/10 * * * *", func() error { return nil }))
}

func TestOverlapGuardSkipsConcurrentRun(t *testing.T) {
	service := NewService(arbor.NewLogger()).(*Service)

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, service.RegisterJob("slow", "*/10 * * * *", func() error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.executeJob("slow")
	}()

	<-started

	// Fires while the first run is still in progress: must skip, not queue
	service.executeJob("slow")
	service.executeJob("slow")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	close(release)
	wg.Wait()

	// After completion the job runs again
	service.executeJob("slow")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExecuteJobTracksStatus(t *testing.T) {
	service := NewService(arbor.NewLogger()).(*Service)

	require.NoError(t, service.RegisterJob("flaky", "*/10 * * * *", func() error {
		return errors.New("upstream unavailable")
	}))

	service.executeJob("flaky")

	status, err := service.GetJobStatus("flaky")
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
	require.NotNil(t, status.LastRun)
	assert.WithinDuration(t, time.Now(), *status.LastRun, 5*time.Second)
	assert.Equal(t, "upstream unavailable", status.LastError)
}

func TestExecuteJobRecoversFromPanic(t *testing.T) {
	service := NewService(arbor.NewLogger()).(*Service)

	require.NoError(t, service.RegisterJob("panicky", "*/10 * * * *", func() error {
		panic("boom")
	}))

	assert.NotPanics(t, func() { service.executeJob("panicky") })

	status, err := service.GetJobStatus("panicky")
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
	assert.Contains(t, status.LastError, "panic")
}

func TestStartStop(t *testing.T) {
	service := NewService(arbor.NewLogger())

	require.NoError(t, service.RegisterJob("noop", "*/10 * * * *", func() error { return nil }))

	require.NoError(t, service.Start())
	assert.True(t, service.IsRunning())
	assert.Error(t, service.Start(), "double start must fail")

	status, err := service.GetJobStatus("noop")
	require.NoError(t, err)
	assert.NotNil(t, status.NextRun)

	require.NoError(t, service.Stop())
	assert.False(t, service.IsRunning())
	require.NoError(t, service.Stop(), "stop is idempotent")
}

// Exercises IsRunning from another goroutine while the lifecycle churns;
// meaningful under the race detector.
func TestIsRunningConcurrentWithLifecycle(t *testing.T) {
	service := NewService(arbor.NewLogger())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				service.IsRunning()
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, service.Start())
		require.NoError(t, service.Stop())
	}

	close(done)
	wg.Wait()
	assert.False(t, service.IsRunning())
}
