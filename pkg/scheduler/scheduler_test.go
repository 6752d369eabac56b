package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func waitRuns(t *testing.T, s *scheduler.Scheduler, name string, runs int) scheduler.JobInfo {
	t.Helper()

	var info scheduler.JobInfo

	require.Eventually(t, func() bool {
		var err error
		info, err = s.GetJobInfoByName(name)

		return err == nil && info.Runs >= runs
	}, 5*time.Second, 10*time.Millisecond)

	return info
}

func TestAddCronRejectsDuplicateName(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron(context.Background(), "sweep", "30 3 * * *", noop))
	require.Error(t, s.AddCron(context.Background(), "sweep", "30 3 * * *", noop))
	require.Error(t, s.AddCron(context.Background(), "bad", "not a cron", noop))

	infos := s.GetJobInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, "sweep", infos[0].Name)
	assert.Equal(t, scheduler.StatusScheduled, infos[0].Status)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()

	var fail atomic.Bool
	fail.Store(true)

	require.NoError(t, s.AddCron(ctx, "flaky", "0 0 1 1 *", func(context.Context) error {
		if fail.Load() {
			return errors.New("asset root unavailable")
		}

		return nil
	}))
	s.Start()

	require.NoError(t, s.RunNow("flaky"))
	info := waitRuns(t, s, "flaky", 1)
	assert.Equal(t, scheduler.StatusError, info.Status)
	assert.Equal(t, "asset root unavailable", info.Error)
	assert.True(t, info.LastSuccess.IsZero())

	fail.Store(false)

	require.NoError(t, s.RunNow("flaky"))
	info = waitRuns(t, s, "flaky", 2)
	assert.Equal(t, scheduler.StatusScheduled, info.Status)
	assert.Empty(t, info.Error)
	assert.False(t, info.LastSuccess.IsZero())
}

func TestPanicIsRecorded(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "boom", "0 0 1 1 *", func(context.Context) error {
		panic("nil store")
	}))
	s.Start()

	require.NoError(t, s.RunNow("boom"))
	info := waitRuns(t, s, "boom", 1)
	assert.Equal(t, scheduler.StatusError, info.Status)
	assert.Contains(t, info.Error, "nil store")
}

func TestUnknownJob(t *testing.T) {
	s := newScheduler(t)

	require.ErrorIs(t, s.RunNow("missing"), scheduler.ErrJobNotFound)
	require.ErrorIs(t, s.RemoveJobByName("missing"), scheduler.ErrJobNotFound)

	_, err := s.GetJobInfoByName("missing")
	require.ErrorIs(t, err, scheduler.ErrJobNotFound)
}

func TestRemoveJobByName(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "sweep", "30 3 * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.RemoveJobByName("sweep"))
	assert.Empty(t, s.GetJobInfos())
}

func TestNextRunKnownBeforeStart(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron(context.Background(), "yearly", "0 0 1 1 *", noop))

	before, err := s.GetJobInfoByName("yearly")
	require.NoError(t, err)
	require.False(t, before.NextRun.IsZero())
	assert.True(t, before.NextRun.After(time.Now()))
	assert.Equal(t, time.January, before.NextRun.Month())
	assert.Equal(t, 1, before.NextRun.Day())

	s.Start()

	after, err := s.GetJobInfoByName("yearly")
	require.NoError(t, err)
	assert.True(t, after.NextRun.Equal(before.NextRun), "%s != %s", after.NextRun, before.NextRun)
}
