// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Probe sessions created by the deployment's own uptime checker carry
// this session id prefix. Purge heuristic, not analysis input.
const probeSessionPrefix = "e5e6"

// Purge tuning. A real browser session id is a 32-char token; anything
// shorter came from a client inventing its own cookie. More than 50
// events in a single minute is beyond human click rates.
const (
	minSessionIDLength  = 10
	burstEventsPerMin   = 50
	burstLookback       = 24 * time.Hour
	purgeDeleteChunkLen = 500
)

// Log is the SQL-backed append-only event log. It implements EventLog and
// carries the aggregation and maintenance queries the operator tools use.
type Log struct {
	DB *sql.DB
}

// InsertExposureIfAbsent appends an exposure event unless the session
// already has one for this (experiment, endpoint). The partial unique
// index makes the insert atomic; the return value reports whether a row
// was written.
func (l *Log) InsertExposureIfAbsent(ctx context.Context, ev Event) (bool, error) {
	res, err := l.DB.ExecContext(ctx, `
		INSERT INTO ab_event (id, experiment_name, variant, event_type, endpoint, session_id, is_forced, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, 'exposure', $4, $5, $6, $7, $8, $9)
		ON CONFLICT (experiment_name, endpoint, session_id) WHERE event_type = 'exposure' DO NOTHING`,
		ev.ID, ev.Experiment, ev.Variant, ev.Endpoint, ev.SessionID, ev.IsForced, ev.IPHash, ev.UserAgent, ev.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert exposure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert exposure rows affected: %w", err)
	}
	return n > 0, nil
}

// InsertConversion appends a conversion event. Never deduplicated.
func (l *Log) InsertConversion(ctx context.Context, ev Event) error {
	_, err := l.DB.ExecContext(ctx, `
		INSERT INTO ab_event (id, experiment_name, variant, event_type, endpoint, session_id, is_forced, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, 'conversion', $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.Experiment, ev.Variant, ev.Endpoint, ev.SessionID, ev.IsForced, ev.IPHash, ev.UserAgent, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

// VariantCounts holds the aggregate event counts for one variant.
type VariantCounts struct {
	Exposures   int
	Conversions int
}

// Counts maps variant label to its aggregate counts.
type Counts map[string]VariantCounts

// Total returns the total number of events across all variants.
func (c Counts) Total() int {
	n := 0
	for _, vc := range c {
		n += vc.Exposures + vc.Conversions
	}
	return n
}

// CountByVariantKind aggregates the experiment's events grouped by
// variant and event type in a single pass. With excludeForced set,
// events from forced (QA) assignments are left out.
func (l *Log) CountByVariantKind(ctx context.Context, experiment string, excludeForced bool) (Counts, error) {
	query := `
		SELECT variant, event_type, COUNT(*)
		FROM ab_event
		WHERE experiment_name = $1`
	if excludeForced {
		query += ` AND is_forced = FALSE`
	}
	query += `
		GROUP BY variant, event_type`

	rows, err := l.DB.QueryContext(ctx, query, experiment)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := Counts{}
	for rows.Next() {
		var variant, kind string
		var n int
		if err := rows.Scan(&variant, &kind, &n); err != nil {
			return nil, fmt.Errorf("scan event counts: %w", err)
		}
		vc := counts[variant]
		switch kind {
		case EventExposure:
			vc.Exposures = n
		case EventConversion:
			vc.Conversions = n
		}
		counts[variant] = vc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event counts: %w", err)
	}
	return counts, nil
}

// PurgeResult reports how many events each heuristic matched. In dry-run
// mode nothing is deleted and the numbers are a preview.
type PurgeResult struct {
	ProbePrefix  int
	ShortSession int
	BurstMinutes int
}

// Total returns the combined number of matched events.
func (r PurgeResult) Total() int {
	return r.ProbePrefix + r.ShortSession + r.BurstMinutes
}

// PurgeSuspectedBots removes events from sessions the classifier missed.
// Three heuristics, applied in order:
//
//  1. session ids starting with the uptime probe's known prefix
//  2. session ids too short to be server-issued tokens
//  3. all events in any minute of the last 24h with more than 50 events
//
// Heuristics run sequentially, so an event deleted by an earlier one is
// not counted again by a later one. Operator-invoked only.
func (l *Log) PurgeSuspectedBots(ctx context.Context, dryRun bool) (PurgeResult, error) {
	var result PurgeResult

	n, err := l.purgeWhere(ctx, dryRun, `session_id LIKE $1`, probeSessionPrefix+"%")
	if err != nil {
		return result, fmt.Errorf("purge probe sessions: %w", err)
	}
	result.ProbePrefix = n

	n, err = l.purgeWhere(ctx, dryRun, `LENGTH(session_id) < $1`, minSessionIDLength)
	if err != nil {
		return result, fmt.Errorf("purge short sessions: %w", err)
	}
	result.ShortSession = n

	n, err = l.purgeBurstMinutes(ctx, dryRun)
	if err != nil {
		return result, fmt.Errorf("purge burst minutes: %w", err)
	}
	result.BurstMinutes = n

	return result, nil
}

func (l *Log) purgeWhere(ctx context.Context, dryRun bool, cond string, args ...any) (int, error) {
	if dryRun {
		var n int
		err := l.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM ab_event WHERE `+cond, args...).Scan(&n)
		return n, err
	}
	res, err := l.DB.ExecContext(ctx, `DELETE FROM ab_event WHERE `+cond, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// purgeBurstMinutes buckets the last 24h of events by minute in Go rather
// than in SQL, so the same code runs on both postgres and sqlite.
func (l *Log) purgeBurstMinutes(ctx context.Context, dryRun bool) (int, error) {
	since := time.Now().UTC().Add(-burstLookback)
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, created_at FROM ab_event WHERE created_at >= $1`, since)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	byMinute := map[time.Time][]string{}
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return 0, err
		}
		minute := at.UTC().Truncate(time.Minute)
		byMinute[minute] = append(byMinute[minute], id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var doomed []string
	for _, ids := range byMinute {
		if len(ids) > burstEventsPerMin {
			doomed = append(doomed, ids...)
		}
	}
	if dryRun || len(doomed) == 0 {
		return len(doomed), nil
	}

	deleted := 0
	for start := 0; start < len(doomed); start += purgeDeleteChunkLen {
		end := start + purgeDeleteChunkLen
		if end > len(doomed) {
			end = len(doomed)
		}
		chunk := doomed[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		res, err := l.DB.ExecContext(ctx,
			`DELETE FROM ab_event WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
		if err != nil {
			return deleted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}
