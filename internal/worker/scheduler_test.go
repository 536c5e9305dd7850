package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (p *countingPruner) PruneArchive(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestRetentionWorkerPrunesImmediatelyAndPeriodically(t *testing.T) {
	pruner := &countingPruner{}
	w := NewRetentionWorker(pruner, 5*time.Millisecond)

	w.Start()
	w.Start()
	require.Eventually(t, func() bool { return pruner.calls.Load() >= 3 }, time.Second, time.Millisecond)
	w.Stop()

	settled := pruner.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, pruner.calls.Load())

	assert.NotPanics(t, w.Stop)
}

func TestRetentionWorkerSurvivesErrors(t *testing.T) {
	pruner := &countingPruner{err: errors.New("database is locked")}
	w := NewRetentionWorker(pruner, 5*time.Millisecond)

	w.Start()
	defer w.Stop()
	require.Eventually(t, func() bool { return pruner.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestSchedulerLifecycle(t *testing.T) {
	pruner := &countingPruner{}
	s := NewScheduler(time.Second)
	s.AddWorker(NewRetentionWorker(pruner, time.Hour))

	s.Start()
	require.Eventually(t, func() bool { return pruner.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.NotPanics(t, s.Stop)

	// a stopped scheduler stays stopped
	s.Start()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), pruner.calls.Load())
}
