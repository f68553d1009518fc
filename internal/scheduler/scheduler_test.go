package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every now and then", func(context.Context) error { return nil }, nil)
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestRun_FirstRunIsImmediate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s, err := New("@every 1h", func(context.Context) error {
		runs.Add(1)
		cancel()
		return nil
	}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestRun_WaitsForRunInProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var finished atomic.Bool
	s, err := New("@every 1h", func(runCtx context.Context) error {
		close(started)
		<-runCtx.Done()
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return runCtx.Err()
	}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-started
	cancel()
	<-done
	assert.True(t, finished.Load())
}

func TestRun_SurvivesFailingRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	s, err := New("@every 1h", func(context.Context) error {
		panic(errors.New("browser exploded"))
	}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
}
