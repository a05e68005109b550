package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

func blockingTask(release <-chan struct{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-release
		return nil
	}
}

func TestExecutor_PerCallerCap(t *testing.T) {
	e := NewExecutor(5, nil)
	release := make(chan struct{})

	// Five concurrent heavy tasks from one caller succeed
	tasks := make([]*Task, 5)
	for i := range tasks {
		task, err := e.Launch("alice", blockingTask(release))
		if err != nil {
			t.Fatalf("task %d rejected: %v", i+1, err)
		}
		tasks[i] = task
	}

	// A sixth is rejected with a retry signal
	_, err := e.Launch("alice", blockingTask(release))
	var rateErr *model.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError for sixth task, got %v", err)
	}
	if rateErr.RetryAfter <= 0 {
		t.Errorf("expected retry hint, got %v", rateErr.RetryAfter)
	}

	// Another caller is unaffected
	if _, err := e.Launch("bob", blockingTask(release)); err != nil {
		t.Errorf("other caller should not be capped: %v", err)
	}

	// After one task completes, a seventh is accepted
	close(release)
	<-tasks[0].Done()
	waitForSlot(t, e, "alice", 5)

	if _, err := e.Launch("alice", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("expected slot after completion, got %v", err)
	}

	e.Wait()
}

func TestExecutor_SlotReleasedOnFailure(t *testing.T) {
	e := NewExecutor(1, nil)

	task, err := e.Launch("alice", func(ctx context.Context) error {
		return errors.New("task failed")
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	<-task.Done()
	e.Wait()

	status, _ := e.Status(task.ID)
	if status.State != TaskFailed || status.Error == "" {
		t.Errorf("expected failed status with error, got %+v", status)
	}
	if e.ActiveTasks("alice") != 0 {
		t.Error("slot not released after failure")
	}

	if _, err := e.Launch("alice", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("expected slot after failure, got %v", err)
	}
	e.Wait()
}

func TestExecutor_SlotReleasedOnPanic(t *testing.T) {
	e := NewExecutor(1, nil)

	task, err := e.Launch("alice", func(ctx context.Context) error {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	<-task.Done()
	e.Wait()

	status, _ := e.Status(task.ID)
	if status.State != TaskFailed {
		t.Errorf("expected failed status after panic, got %+v", status)
	}
	if e.ActiveTasks("alice") != 0 {
		t.Error("slot not released after panic")
	}
}

func TestExecutor_StatusUnknownTask(t *testing.T) {
	e := NewExecutor(1, nil)

	if _, ok := e.Status("no-such-task"); ok {
		t.Error("expected miss for unknown task id")
	}
}

// waitForSlot polls until the caller has fewer than limit active tasks
func waitForSlot(t *testing.T, e *Executor, callerID string, limit int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.ActiveTasks(callerID) < limit {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("slot never released")
}
