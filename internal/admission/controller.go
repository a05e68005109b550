package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

// State is the outcome of an admission check
type State int

const (
	// Open means the request may run inline
	Open State = iota
	// Throttled means a limit was hit; retry after Decision.RetryAfter
	Throttled
	// Deferred means the request was accepted and handed to the
	// background executor
	Deferred
)

// Decision is the structured result of an admission check
type Decision struct {
	State      State
	Scope      string        // "window" or "burst" when throttled
	RetryAfter time.Duration // Wait hint when throttled
	TaskID     string        // Background task id when deferred
}

// Controller applies per-(caller, action) admission policies. Two
// independent checks gate every request: the trailing-window count against
// max_requests and the trailing burst-window count against burst_limit.
// Store failures fail open; enforcement never outranks availability.
type Controller struct {
	store       CounterStore
	policies    map[string]model.ActionPolicy
	burstWindow time.Duration
	executor    *Executor
	logger      *slog.Logger
	now         func() time.Time
}

// NewController creates a controller. executor may be nil, in which case
// heavy actions run inline like everything else.
func NewController(store CounterStore, cfg model.AdmissionConfig, executor *Executor, logger *slog.Logger) (*Controller, error) {
	if len(cfg.Policies) == 0 {
		return nil, &model.ConfigurationError{Field: "admission.policies", Reason: "at least one action policy required"}
	}
	burstWindow := time.Duration(cfg.BurstWindowSeconds) * time.Second
	if burstWindow <= 0 {
		burstWindow = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:       store,
		policies:    cfg.Policies,
		burstWindow: burstWindow,
		executor:    executor,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Check applies the window and burst checks for one request without
// attaching any work. Heavy-action deferral needs Admit.
func (c *Controller) Check(callerID, actionType string) (Decision, error) {
	return c.admit(callerID, actionType)
}

// Admit applies the checks and, for accepted heavy actions, hands run to
// the background executor instead of letting the caller run it inline. For
// light actions an Open decision means the caller runs run itself.
func (c *Controller) Admit(callerID, actionType string, run func(ctx context.Context) error) (Decision, error) {
	policy, ok := c.policies[actionType]
	if !ok {
		return Decision{}, &model.ConfigurationError{
			Field:  "admission.policies." + actionType,
			Reason: "no policy configured for action type",
		}
	}

	decision, err := c.admit(callerID, actionType)
	if err != nil || decision.State != Open {
		return decision, err
	}

	if policy.Heavy && c.executor != nil && run != nil {
		task, launchErr := c.executor.Launch(callerID, run)
		if launchErr != nil {
			// The request never ran, so the counters consumed by admit
			// are given back; a caller at the task cap must not burn
			// window quota on rejected launches.
			c.refund(callerID, actionType)
			var rateErr *model.RateLimitError
			if errors.As(launchErr, &rateErr) {
				return Decision{State: Throttled, Scope: "background", RetryAfter: rateErr.RetryAfter}, nil
			}
			return Decision{}, launchErr
		}
		return Decision{State: Deferred, TaskID: task.ID}, nil
	}

	return decision, nil
}

// admit runs both checks and increments the counters when the request
// passes. The store serializes per-key access, so check and increment are
// atomic with respect to concurrent requests from the same caller.
func (c *Controller) admit(callerID, actionType string) (Decision, error) {
	policy, ok := c.policies[actionType]
	if !ok {
		return Decision{}, &model.ConfigurationError{
			Field:  "admission.policies." + actionType,
			Reason: "no policy configured for action type",
		}
	}

	window := time.Duration(policy.WindowSeconds) * time.Second
	key := callerID + ":" + actionType

	var decision Decision
	err := c.store.Update(key, func(w *Window) {
		now := c.now()

		// Reset when the window has aged out
		if w.Start.IsZero() || now.Sub(w.Start) >= window {
			w.Start = now
			w.Count = 0
		}

		// Drop burst timestamps older than the burst window
		cutoff := now.Add(-c.burstWindow)
		kept := w.Recent[:0]
		for _, ts := range w.Recent {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		w.Recent = kept

		if w.Count >= int64(policy.MaxRequests) {
			decision = Decision{
				State:      Throttled,
				Scope:      "window",
				RetryAfter: w.Start.Add(window).Sub(now),
			}
			return
		}
		if len(w.Recent) >= policy.BurstLimit {
			decision = Decision{
				State:      Throttled,
				Scope:      "burst",
				RetryAfter: w.Recent[0].Add(c.burstWindow).Sub(now),
			}
			return
		}

		w.Count++
		w.Recent = append(w.Recent, now)
		decision = Decision{State: Open}
	})
	if err != nil {
		// Counter store outage: allow the request and log the degradation
		degraded := &model.DegradedModeError{Component: "admission counter store", Err: err}
		c.logger.Warn("admission check degraded, failing open",
			"caller", callerID, "action", actionType, "error", degraded)
		return Decision{State: Open}, nil
	}

	return decision, nil
}

// refund undoes the most recent counter increment for a request that was
// admitted but never executed. Counters stay non-negative; a refund
// failure only loosens enforcement, matching the fail-open policy.
func (c *Controller) refund(callerID, actionType string) {
	key := callerID + ":" + actionType
	err := c.store.Update(key, func(w *Window) {
		if w.Count > 0 {
			w.Count--
		}
		if n := len(w.Recent); n > 0 {
			w.Recent = w.Recent[:n-1]
		}
	})
	if err != nil {
		c.logger.Warn("admission refund failed",
			"caller", callerID, "action", actionType, "error", err)
	}
}

// Executor returns the background executor, for task status polling
func (c *Controller) Executor() *Executor { return c.executor }
