// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Guidepost server.

Guidepost is a content-submission site (categorized posts with a
moderation workflow) that carries an embedded two-armed A/B experiment:
the appreciation button on the experiment page is labeled either "kudos"
or "thanks", and the server measures which label gets clicked more.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 3419 -d "postgres://..."

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): Database connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - IP_HASH_SALT (--ip-salt): Secret for privacy-preserving IP hashing

Optional settings:

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): postgres (default) or sqlite
  - EXPERIMENT_NAME, VARIANT_A, VARIANT_B: Experiment identity
  - EXPOSURE_POLICY: on-view (default) or on-click
  - SESSION_COOKIE: Session cookie name (default: gp_session)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - abtest: Experiment core (classifier, assignment, events, analysis)
  - session: Visitor sessions and the SQL assignment store
  - handlers: HTTP request handlers (experiment, posts, categories, admin)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, cache suppression
  - models: Request/response types
  - auth: Token generation and validation
  - metrics: Prometheus counters
  - db: Schema creation
  - cliparse: Configuration parsing

The operator CLI lives in cmd/abctl and mirrors the admin-tools HTTP
endpoints plus the offline statistical report.

See package documentation for each component.
*/
package main
