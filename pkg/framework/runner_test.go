package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errA := errors.New("a")
	require.Equal(t, errA, errs.Add(errA).Aggregate())
	errs.Add(errors.New("b"))
	require.Equal(t, "multiple errors:\n  a\n  b", errs.Aggregate().Error())
}

func TestRunnerStopsAll(t *testing.T) {
	failure := errors.New("port closed")
	r := NewRunner().Go(
		NamedRun("failing", RunFunc(func(ctx context.Context) error {
			return failure
		})),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	require.Equal(t, failure, r.Wait())
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	cancel()
	require.NoError(t, r.Wait())
}

type closer struct {
	ch chan struct{}
}

func (c *closer) Close() error {
	select {
	case <-c.ch:
	default:
		close(c.ch)
	}
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &closer{ch: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.ch
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)

	c = &closer{ch: make(chan struct{})}
	err = RunWithContextCloser(context.Background(), c, func() error { return nil })
	require.NoError(t, err)
	_, open := <-c.ch
	require.False(t, open)
}
