package admission

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

// TaskState is the lifecycle of a background task
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// TaskStatus is a pollable snapshot of one background task
type TaskStatus struct {
	ID         string
	CallerID   string
	State      TaskState
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Task is one deferred unit of work
type Task struct {
	ID       string
	CallerID string

	mu         sync.Mutex
	state      TaskState
	err        error
	startedAt  time.Time
	finishedAt time.Time
	done       chan struct{}
}

// Status returns a snapshot of the task
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := TaskStatus{
		ID:         t.ID,
		CallerID:   t.CallerID,
		State:      t.state,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
	if t.err != nil {
		status.Error = t.err.Error()
	}
	return status
}

// Done returns a channel closed when the task finishes
func (t *Task) Done() <-chan struct{} { return t.done }

// Executor runs deferred heavy requests, capping concurrent tasks per
// caller. Excess launches are rejected with a retry signal instead of
// queuing unbounded work.
type Executor struct {
	limit  int
	logger *slog.Logger

	mu        sync.Mutex
	perCaller map[string]int
	tasks     map[string]*Task
	wg        sync.WaitGroup
}

// NewExecutor creates an executor with the given per-caller task cap
func NewExecutor(perCallerLimit int, logger *slog.Logger) *Executor {
	if perCallerLimit <= 0 {
		perCallerLimit = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		limit:     perCallerLimit,
		logger:    logger,
		perCaller: make(map[string]int),
		tasks:     make(map[string]*Task),
	}
}

// Launch starts run in the background for callerID. When the caller is at
// its concurrency cap, Launch returns a RateLimitError carrying a retry
// hint. The caller's slot is released on every exit path, panics included.
func (e *Executor) Launch(callerID string, run func(ctx context.Context) error) (*Task, error) {
	e.mu.Lock()
	if e.perCaller[callerID] >= e.limit {
		e.mu.Unlock()
		return nil, &model.RateLimitError{
			CallerID:   callerID,
			ActionType: "background",
			Scope:      "background",
			RetryAfter: time.Second,
		}
	}
	e.perCaller[callerID]++

	task := &Task{
		ID:        newTaskID(),
		CallerID:  callerID,
		state:     TaskRunning,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	e.tasks[task.ID] = task
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		var runErr error
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v", r)
				e.logger.Error("background task panicked", "task", task.ID, "panic", r)
			}
			e.finish(task, runErr)
		}()
		runErr = run(context.Background())
	}()

	return task, nil
}

// finish records the outcome and releases the caller's slot
func (e *Executor) finish(task *Task, runErr error) {
	task.mu.Lock()
	if runErr != nil {
		task.state = TaskFailed
		task.err = runErr
	} else {
		task.state = TaskCompleted
	}
	task.finishedAt = time.Now()
	task.mu.Unlock()
	close(task.done)

	e.mu.Lock()
	if e.perCaller[task.CallerID] > 0 {
		e.perCaller[task.CallerID]--
	}
	e.mu.Unlock()
	e.wg.Done()
}

// Status returns the pollable status for a task id
func (e *Executor) Status(taskID string) (TaskStatus, bool) {
	e.mu.Lock()
	task, ok := e.tasks[taskID]
	e.mu.Unlock()
	if !ok {
		return TaskStatus{}, false
	}
	return task.Status(), true
}

// ActiveTasks returns the number of running tasks for a caller
func (e *Executor) ActiveTasks(callerID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perCaller[callerID]
}

// Wait blocks until all launched tasks have finished
func (e *Executor) Wait() {
	e.wg.Wait()
}

func newTaskID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("task-%d", time.Now().UnixNano())
	}
	return "task-" + hex.EncodeToString(buf[:])
}
