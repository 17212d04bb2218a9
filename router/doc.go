// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Guidepost server.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health and observability:

	GET /health
	GET /metrics

Experiment (public):

	GET  /experiment       - Experiment page (assigns variant, logs exposure)
	POST /experiment/click - Record a conversion

Content (public):

	GET  /categories          - List categories
	GET  /categories/{slug}   - Category with approved posts
	POST /posts               - Submit a post
	GET  /posts/{slug}        - Approved post by slug
	POST /posts/{id}/submit   - Move draft into review

Bookmarks (session-scoped):

	PUT    /bookmarks/{post_id}
	DELETE /bookmarks/{post_id}
	GET    /bookmarks

Moderation (admin, requires X-Admin-Key):

	POST /categories          - Create category
	POST /posts/{id}/approve  - Publish a pending post
	POST /posts/{id}/reject   - Reject a pending post
	GET  /dashboard           - Review queue

Admin tools (requires X-Admin-Key):

	GET /admin-tools/ab-purge-bots/dry-run - Preview bot purge
	GET /admin-tools/ab-purge-bots/run     - Purge bot events
	GET /admin-tools/ab-summary            - Per-variant event summary

Method/path patterns on the ServeMux give unmatched methods a 405
automatically, so stray POSTs to the experiment page write no events.
*/
package router
