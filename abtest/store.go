// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import (
	"context"
	"errors"
	"time"
)

// ErrStorageUnavailable wraps any storage failure in the assignment or
// event paths. Callers degrade rather than fail the visitor's request.
var ErrStorageUnavailable = errors.New("experiment storage unavailable")

// ErrNotFound is returned by assignment lookups when no record exists.
var ErrNotFound = errors.New("assignment not found")

// Assignment is one session's sticky variant for one experiment.
// Variant never changes after creation except through Force.
type Assignment struct {
	SessionID  string
	Experiment string
	Variant    string
	Exposed    bool
	IsForced   bool
	CreatedAt  time.Time
}

// Event is one row of the append-only experiment log.
type Event struct {
	ID         string
	Experiment string
	Variant    string
	EventType  string
	Endpoint   string
	SessionID  string
	IsForced   bool
	IPHash     string
	UserAgent  string
	CreatedAt  time.Time
}

// AssignmentStore persists sticky variant assignments. Create must be an
// atomic insert-if-absent on (session, experiment): when two requests race,
// exactly one insert wins and both callers see the winner via Get.
type AssignmentStore interface {
	Get(ctx context.Context, sessionID, experiment string) (Assignment, error)
	Create(ctx context.Context, a Assignment) error
	Force(ctx context.Context, a Assignment) error
	MarkExposed(ctx context.Context, sessionID, experiment string) error
}

// EventLog is the append-only event sink. InsertExposureIfAbsent reports
// whether a row was actually written; false means the session's exposure
// for this (experiment, endpoint) already existed.
type EventLog interface {
	InsertExposureIfAbsent(ctx context.Context, ev Event) (bool, error)
	InsertConversion(ctx context.Context, ev Event) error
}
