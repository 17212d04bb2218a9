// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Visitor sessions
CREATE TABLE IF NOT EXISTS ab_session (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);

-- Variant assignments (one per session per experiment)
CREATE TABLE IF NOT EXISTS ab_assignment (
    session_id TEXT NOT NULL REFERENCES ab_session(id) ON DELETE CASCADE,
    experiment_name TEXT NOT NULL,
    variant TEXT NOT NULL,
    exposed BOOLEAN NOT NULL DEFAULT FALSE,
    is_forced BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (session_id, experiment_name)
);

-- Append-only experiment event log
CREATE TABLE IF NOT EXISTS ab_event (
    id TEXT PRIMARY KEY,
    experiment_name TEXT NOT NULL,
    variant TEXT NOT NULL,
    event_type TEXT NOT NULL CHECK (event_type IN ('exposure', 'conversion')),
    endpoint TEXT NOT NULL,
    session_id TEXT NOT NULL,
    is_forced BOOLEAN NOT NULL DEFAULT FALSE,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL
);

-- At most one exposure per (experiment, endpoint, session). This partial
-- unique index backs the atomic insert-if-absent used for exposure dedup.
CREATE UNIQUE INDEX IF NOT EXISTS uq_ab_event_exposure
    ON ab_event(experiment_name, endpoint, session_id)
    WHERE event_type = 'exposure';

CREATE INDEX IF NOT EXISTS idx_ab_event_experiment ON ab_event(experiment_name, event_type);
CREATE INDEX IF NOT EXISTS idx_ab_event_session ON ab_event(session_id);
CREATE INDEX IF NOT EXISTS idx_ab_event_created_at ON ab_event(created_at);

-- Categories
CREATE TABLE IF NOT EXISTS category (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_category_slug ON category(slug);

-- Posts
CREATE TABLE IF NOT EXISTS post (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    category_id TEXT NOT NULL REFERENCES category(id) ON DELETE CASCADE,
    author_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'pending', 'approved', 'rejected')),
    updated_at TIMESTAMP NOT NULL,
    published_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_post_status ON post(status);
CREATE INDEX IF NOT EXISTS idx_post_category_id ON post(category_id);
CREATE INDEX IF NOT EXISTS idx_post_slug ON post(slug);

-- Bookmarks (session-scoped)
CREATE TABLE IF NOT EXISTS bookmark (
    session_id TEXT NOT NULL REFERENCES ab_session(id) ON DELETE CASCADE,
    post_id TEXT NOT NULL REFERENCES post(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (session_id, post_id)
);

CREATE INDEX IF NOT EXISTS idx_bookmark_post_id ON bookmark(post_id);
`
