// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - ab_session: Anonymous visitor sessions
  - ab_assignment: Variant assignment per session per experiment
  - ab_event: Append-only exposure/conversion event log
  - category: Content categories
  - post: Posts with the draft → pending → approved/rejected workflow
  - bookmark: Session-scoped saved posts

# Relationships

	ab_session 1──* ab_assignment
	ab_session 1──* bookmark
	category   1──* post
	post       1──* bookmark

ab_event carries a session_id but no foreign key: it is an audit log and
must survive session expiry.

# Exposure Dedup

The partial unique index uq_ab_event_exposure on
(experiment_name, endpoint, session_id) WHERE event_type = 'exposure'
guarantees at most one exposure row per session and endpoint. Inserts go
through ON CONFLICT DO NOTHING, so concurrent first requests cannot create
duplicates; conversion rows have no such limit.
*/
package db
