package model

import (
	"fmt"
	"time"
)

// InvalidInputError indicates malformed caller input (empty text, bad
// parameters). The caller's fault; never retried internally.
type InvalidInputError struct {
	Stage  string // Pipeline stage that rejected the input
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Stage, e.Reason)
}

// EncodingError indicates the external semantic encoder failed. Aborts the
// enclosing aggregation; partial vectors are never persisted.
type EncodingError struct {
	Stage string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: encoding failed: %v", e.Stage, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// RetrievalError indicates the retrieval index was unreachable or the query
// was malformed.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ConfigurationError indicates an invalid configuration such as a vector
// dimension mismatch or a missing threshold. Fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

// RateLimitError carries a structured wait-time hint. Not a hard failure;
// the caller is expected to retry after RetryAfter.
type RateLimitError struct {
	CallerID   string
	ActionType string
	Scope      string // "window" or "burst" or "background"
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s/%s (%s): retry after %s",
		e.CallerID, e.ActionType, e.Scope, e.RetryAfter)
}

// DegradedModeError marks a counter or cache store outage. It is logged and
// the request proceeds; enforcement never outranks availability.
type DegradedModeError struct {
	Component string
	Err       error
}

func (e *DegradedModeError) Error() string {
	return fmt.Sprintf("%s degraded: %v", e.Component, e.Err)
}

func (e *DegradedModeError) Unwrap() error { return e.Err }
