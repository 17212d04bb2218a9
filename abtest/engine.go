// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Engine hands out sticky variant assignments for one experiment.
type Engine struct {
	Experiment Experiment
	Store      AssignmentStore
}

// GetOrAssign returns the session's variant, creating one with an unbiased
// coin flip on first contact. The flip uses math/rand/v2: assignment only
// needs statistical balance, not unpredictability, and the session token
// is the secret, not the variant.
//
// Creation is insert-if-absent followed by a re-read, so two concurrent
// first requests for the same session converge on whichever insert won.
func (e *Engine) GetOrAssign(ctx context.Context, sessionID string) (Assignment, error) {
	a, err := e.Store.Get(ctx, sessionID, e.Experiment.Name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Assignment{}, fmt.Errorf("%w: get assignment: %w", ErrStorageUnavailable, err)
	}

	variant := e.Experiment.VariantA
	if rand.IntN(2) == 1 {
		variant = e.Experiment.VariantB
	}

	fresh := Assignment{
		SessionID:  sessionID,
		Experiment: e.Experiment.Name,
		Variant:    variant,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Store.Create(ctx, fresh); err != nil {
		return Assignment{}, fmt.Errorf("%w: create assignment: %w", ErrStorageUnavailable, err)
	}

	// Re-read: if a concurrent request inserted first, its variant is the
	// one that stuck and ours was a no-op.
	a, err = e.Store.Get(ctx, sessionID, e.Experiment.Name)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: reread assignment: %w", ErrStorageUnavailable, err)
	}
	if a.Variant != variant {
		slog.Debug("assignment race lost",
			"session", sessionID,
			"flipped", variant,
			"stored", a.Variant,
		)
	}
	return a, nil
}

// Force pins the session to the given variant, overwriting any existing
// assignment and marking it forced so analysis can exclude it. Used by the
// ?force= query parameter during QA; invalid labels are rejected.
func (e *Engine) Force(ctx context.Context, sessionID, variant string) (Assignment, error) {
	if !e.Experiment.ValidVariant(variant) {
		return Assignment{}, fmt.Errorf("unknown variant %q", variant)
	}
	a := Assignment{
		SessionID:  sessionID,
		Experiment: e.Experiment.Name,
		Variant:    variant,
		IsForced:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Store.Force(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("%w: force assignment: %w", ErrStorageUnavailable, err)
	}
	return e.Store.Get(ctx, sessionID, e.Experiment.Name)
}
