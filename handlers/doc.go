// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Guidepost server.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ExperimentHandler: Experiment page and conversion clicks
  - PostHandler: Post submission and moderation workflow
  - CategoryHandler: Category management and listing
  - BookmarkHandler: Session-scoped bookmarks
  - AdminToolsHandler: Bot purge and experiment summary

Handlers are created via constructor functions that accept *sql.DB and Config:

	experimentHandler := handlers.NewExperimentHandler(db, cfg)

# Experiment Flow

The experiment page assigns a sticky variant per session cookie and logs
exposures for eligible navigations; the click endpoint records
conversions:

	GET  /experiment       → Page (assigns, renders, logs exposure)
	POST /experiment/click → Click (records conversion)

Both responses carry no-store cache headers. The click response echoes
the session's assigned variant; any variant in the request body is
ignored. QA can pin a variant with ?force=a or ?force=b on the page,
which marks the assignment and its events as forced.

# Moderation Workflow

Posts progress draft → pending → approved/rejected:

	POST /posts              → CreatePost (draft, or pending via status)
	POST /posts/{id}/submit  → SubmitPost (draft → pending)
	POST /posts/{id}/approve → ApprovePost (admin, sets published_at)
	POST /posts/{id}/reject  → RejectPost (admin)
	GET  /dashboard          → Dashboard (admin, review queue)

Admin operations require the X-Admin-Key header.

# Admin Tools

Operator maintenance over the event log:

	GET /admin-tools/ab-purge-bots/dry-run → preview purge counts
	GET /admin-tools/ab-purge-bots/run     → delete matching events
	GET /admin-tools/ab-summary            → per-variant counts + split check
*/
package handlers
