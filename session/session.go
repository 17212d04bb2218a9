// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/farstorm/guidepost/abtest"
	"github.com/farstorm/guidepost/auth"
)

// Manager issues and persists visitor sessions. The session id is a
// random token carried in an HttpOnly cookie; it is the only identity
// the experiment ever sees.
type Manager struct {
	DB         *sql.DB
	CookieName string
}

// Ensure returns the request's session id, minting a new session and
// setting the cookie when the request has none. Existing ids are
// re-inserted with insert-if-absent so the session row survives purges
// and keeps foreign keys valid.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(m.CookieName); err == nil && c.Value != "" {
		if err := m.persist(r.Context(), c.Value); err != nil {
			return "", err
		}
		return c.Value, nil
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	if err := m.persist(r.Context(), token); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((180 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// FromRequest returns the session id without minting one. Used by
// endpoints that must not create sessions (read-only bookmark listing).
func (m *Manager) FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (m *Manager) persist(ctx context.Context, id string) error {
	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO ab_session (id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Store is the SQL-backed abtest.AssignmentStore.
type Store struct {
	DB *sql.DB
}

func (s *Store) Get(ctx context.Context, sessionID, experiment string) (abtest.Assignment, error) {
	var a abtest.Assignment
	err := s.DB.QueryRowContext(ctx, `
		SELECT session_id, experiment_name, variant, exposed, is_forced, created_at
		FROM ab_assignment
		WHERE session_id = $1 AND experiment_name = $2`,
		sessionID, experiment,
	).Scan(&a.SessionID, &a.Experiment, &a.Variant, &a.Exposed, &a.IsForced, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return abtest.Assignment{}, abtest.ErrNotFound
	}
	if err != nil {
		return abtest.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// Create inserts the assignment unless one exists. The primary key on
// (session_id, experiment_name) makes this the atomic insert-if-absent
// the engine's convergence relies on.
func (s *Store) Create(ctx context.Context, a abtest.Assignment) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO ab_assignment (session_id, experiment_name, variant, exposed, is_forced, created_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		ON CONFLICT (session_id, experiment_name) DO NOTHING`,
		a.SessionID, a.Experiment, a.Variant, a.IsForced, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Force upserts the assignment with the forced flag set. The exposed
// flag is left alone: any exposure already logged stays logged.
func (s *Store) Force(ctx context.Context, a abtest.Assignment) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO ab_assignment (session_id, experiment_name, variant, exposed, is_forced, created_at)
		VALUES ($1, $2, $3, FALSE, TRUE, $4)
		ON CONFLICT (session_id, experiment_name)
		DO UPDATE SET variant = EXCLUDED.variant, is_forced = TRUE`,
		a.SessionID, a.Experiment, a.Variant, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("force assignment: %w", err)
	}
	return nil
}

func (s *Store) MarkExposed(ctx context.Context, sessionID, experiment string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE ab_assignment SET exposed = TRUE
		WHERE session_id = $1 AND experiment_name = $2`,
		sessionID, experiment,
	)
	if err != nil {
		return fmt.Errorf("mark exposed: %w", err)
	}
	return nil
}
