package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoAndWait(t *testing.T) {
	s := New(context.Background())

	ran := make(chan struct{})
	s.Go("worker", func(ctx context.Context) error {
		close(ran)
		return nil
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
	require.NoError(t, s.Wait(context.Background()))
	assert.EqualValues(t, 1, s.Counters().Started)
	assert.EqualValues(t, 0, s.Counters().Active)
}

func TestFirstErrorRecorded(t *testing.T) {
	s := New(context.Background())

	boom := errors.New("boom")
	s.Go("bad", func(ctx context.Context) error { return boom })

	err := s.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad:")
}

func TestCanceledErrorIgnored(t *testing.T) {
	s := New(context.Background())

	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Cancel()
	require.NoError(t, s.Wait(context.Background()))
}

func TestPanicRecovered(t *testing.T) {
	s := New(context.Background())

	s.Go("panics", func(ctx context.Context) error { panic("kaboom") })

	err := s.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in panics")
}

func TestCancelOnError(t *testing.T) {
	s := New(context.Background(), WithCancelOnError(true))

	s.Go("bad", func(ctx context.Context) error { return errors.New("boom") })
	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	require.Error(t, s.Wait(context.Background()))
}

func TestWaitTimeout(t *testing.T) {
	s := New(context.Background())

	release := make(chan struct{})
	s.Go("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Wait(context.Background()))
}
