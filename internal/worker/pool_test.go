package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countJob struct {
	counter *atomic.Int64
	fail    bool
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	if j.fail {
		return &countResult{err: errors.New("job failed")}
	}
	return &countResult{}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var counter atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()

	if counter.Load() != 20 {
		t.Errorf("expected 20 executions, got %d", counter.Load())
	}
	if len(results) != 20 {
		t.Errorf("expected 20 results, got %d", len(results))
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var counter atomic.Int64
	pool.Submit(&countJob{counter: &counter})
	pool.Submit(&countJob{counter: &counter, fail: true})

	results := pool.Wait()

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed result, got %d", failed)
	}
}

func TestPool_DefaultsToOneWorker(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	if pool.workers != 1 {
		t.Errorf("expected 1 worker for non-positive input, got %d", pool.workers)
	}
}

// cancelJob blocks until its context is cancelled and records the error
// it observed
type cancelJob struct {
	started chan struct{}
	sawErr  *atomic.Value
}

func (j *cancelJob) Execute(ctx context.Context) Result {
	close(j.started)
	<-ctx.Done()
	j.sawErr.Store(ctx.Err())
	return &countResult{err: ctx.Err()}
}

func TestPool_CallerCancellationReachesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	started := make(chan struct{})
	var sawErr atomic.Value
	pool.Submit(&cancelJob{started: started, sawErr: &sawErr})

	go func() {
		<-started
		cancel()
	}()

	pool.Wait()

	if err, _ := sawErr.Load().(error); !errors.Is(err, context.Canceled) {
		t.Errorf("expected job to observe cancellation, got %v", err)
	}
}
