// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/farstorm/guidepost/metrics"
)

// Recorder writes exposure and conversion events for one experiment.
// It never fabricates events: when storage is down the event is lost,
// logged, and counted, but nothing is retried or queued.
type Recorder struct {
	Experiment Experiment
	Store      AssignmentStore
	Log        EventLog
	// PolicyOnView or PolicyOnClick; decides whether eligible page views
	// write the exposure or leave it to conversion backfill.
	Policy string
}

// LogExposureIfFirst records the session's exposure if none exists yet.
// No-op when the request is ineligible, when the policy defers exposures
// to clicks, or when the assignment is already marked exposed. The
// authoritative dedup is the atomic insert; the exposed flag is only a
// fast path that skips the write on repeat views.
func (r *Recorder) LogExposureIfFirst(ctx context.Context, a Assignment, eligible bool, meta RequestMeta) error {
	if !eligible {
		metrics.IneligibleRequestsTotal.Inc()
		return nil
	}
	if r.Policy == PolicyOnClick {
		return nil
	}
	if a.Exposed {
		return nil
	}
	return r.insertExposure(ctx, a, meta)
}

// LogConversion backfills the session's exposure if missing, then appends
// a conversion. The backfill skips the eligibility gate: a click proves a
// human saw the button, whatever the classifier thought of the page view.
// Conversions are never deduplicated.
func (r *Recorder) LogConversion(ctx context.Context, a Assignment, meta RequestMeta) error {
	if !a.Exposed {
		if err := r.insertExposure(ctx, a, meta); err != nil {
			return err
		}
	}

	ev := Event{
		ID:         uuid.NewString(),
		Experiment: r.Experiment.Name,
		Variant:    a.Variant,
		EventType:  EventConversion,
		Endpoint:   r.Experiment.Endpoint,
		SessionID:  a.SessionID,
		IsForced:   a.IsForced,
		IPHash:     meta.IPHash,
		UserAgent:  meta.UserAgent,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.Log.InsertConversion(ctx, ev); err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("insert_conversion").Inc()
		slog.Error("conversion insert failed",
			"experiment", r.Experiment.Name,
			"session", a.SessionID,
			"error", err,
		)
		return fmt.Errorf("%w: insert conversion: %w", ErrStorageUnavailable, err)
	}
	metrics.ConversionsTotal.WithLabelValues(a.Variant).Inc()
	return nil
}

func (r *Recorder) insertExposure(ctx context.Context, a Assignment, meta RequestMeta) error {
	ev := Event{
		ID:         uuid.NewString(),
		Experiment: r.Experiment.Name,
		Variant:    a.Variant,
		EventType:  EventExposure,
		Endpoint:   r.Experiment.Endpoint,
		SessionID:  a.SessionID,
		IsForced:   a.IsForced,
		IPHash:     meta.IPHash,
		UserAgent:  meta.UserAgent,
		CreatedAt:  time.Now().UTC(),
	}

	inserted, err := r.Log.InsertExposureIfAbsent(ctx, ev)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("insert_exposure").Inc()
		slog.Error("exposure insert failed",
			"experiment", r.Experiment.Name,
			"session", a.SessionID,
			"error", err,
		)
		return fmt.Errorf("%w: insert exposure: %w", ErrStorageUnavailable, err)
	}
	if inserted {
		metrics.ExposuresTotal.WithLabelValues(a.Variant).Inc()
	}

	// Flag update is best-effort; the unique index keeps correctness if
	// this write is lost.
	if err := r.Store.MarkExposed(ctx, a.SessionID, a.Experiment); err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("mark_exposed").Inc()
		slog.Error("mark exposed failed",
			"experiment", r.Experiment.Name,
			"session", a.SessionID,
			"error", err,
		)
	}
	return nil
}
