package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobpilot/internal/model"
)

// fakeRunner counts passes and optionally blocks until released.
type fakeRunner struct {
	calls   atomic.Int32
	delay   time.Duration
	started chan struct{}
	release chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context) (model.RunStats, error) {
	r.calls.Add(1)
	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.release != nil {
		<-r.release
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return model.RunStats{}, nil
}

func TestScheduler_RunsImmediatePassAndStopWaitsForIt(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	s := New(runner, 1, zap.NewNop().Sugar())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Equal(t, int32(1), runner.calls.Load(), "Stop returns only after the first pass finished")
}

func TestScheduler_OverlappingPassIsSkipped(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := New(runner, 1, zap.NewNop().Sugar())

	require.NoError(t, s.Start(context.Background()))
	<-runner.started

	// The first pass still holds the chain; a second fire is dropped.
	s.job.Run()
	assert.Equal(t, int32(1), runner.calls.Load())

	close(runner.release)
	s.Stop()
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestScheduler_CancelledContextSkipsThePass(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, 1, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Start(ctx))
	s.Stop()

	assert.Equal(t, int32(0), runner.calls.Load())
}
