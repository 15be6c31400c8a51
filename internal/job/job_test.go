package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/pkg/platform/sentinel"
)

func TestRunner_RunCompletes(t *testing.T) {
	r := NewRunner()

	ran := false
	err := r.Run(context.Background(), KindPropagate, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRunner_RunPropagatesJobError(t *testing.T) {
	r := NewRunner()

	boom := errors.New("boom")
	err := r.Run(context.Background(), KindGenerate, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunner_NewerRunSupersedesInFlight(t *testing.T) {
	r := NewRunner()

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	var firstErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = r.Run(context.Background(), KindPropagate, func(ctx context.Context) error {
			close(started)
			<-release
			return ctx.Err()
		})
	}()

	<-started
	secondErr := r.Run(context.Background(), KindPropagate, func(ctx context.Context) error {
		return nil
	})
	close(release)
	wg.Wait()

	require.NoError(t, secondErr)
	assert.ErrorIs(t, firstErr, sentinel.ErrSuperseded)
}

func TestRunner_SupersededEvenWhenJobIgnoresContext(t *testing.T) {
	r := NewRunner()

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	var firstErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = r.Run(context.Background(), KindAnalyze, func(ctx context.Context) error {
			close(started)
			<-release
			return nil // ignores cancellation, still must not win
		})
	}()

	<-started
	require.NoError(t, r.Run(context.Background(), KindAnalyze, func(ctx context.Context) error {
		return nil
	}))
	close(release)
	wg.Wait()

	assert.ErrorIs(t, firstErr, sentinel.ErrSuperseded)
}

func TestRunner_SupersedeCancelsInFlight(t *testing.T) {
	r := NewRunner()

	started := make(chan struct{})
	var wg sync.WaitGroup
	var err error

	wg.Add(1)
	go func() {
		defer wg.Done()
		err = r.Run(context.Background(), KindGenerate, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	r.Supersede()
	wg.Wait()

	assert.ErrorIs(t, err, sentinel.ErrSuperseded)
}

func TestRunner_CallerCancellationIsNotSuperseded(t *testing.T) {
	r := NewRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, KindPropagate, func(jobCtx context.Context) error {
		return jobCtx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, sentinel.ErrSuperseded)
}

func TestRunner_CloseRejectsNewJobs(t *testing.T) {
	r := NewRunner()
	r.Close()

	err := r.Run(context.Background(), KindPropagate, func(ctx context.Context) error {
		t.Fatal("job must not run after close")
		return nil
	})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestRunner_CloseCancelsInFlight(t *testing.T) {
	r := NewRunner()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- r.Run(context.Background(), KindAnalyze, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	r.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, sentinel.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("in-flight job was not cancelled by Close")
	}
}
