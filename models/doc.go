// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateCategoryRequest: name, description
  - CreatePostRequest: title, content, category_slug, author_name, status

# Response Types

Types for JSON responses:

  - CreateCategoryResponse: category_id, slug
  - CreatePostResponse: post_id, slug, status
  - ClickResponse: status, variant
  - PurgeResponse: purge heuristic counts
  - SummaryResponse: per-variant exposure/conversion summary
  - DashboardResponse: pending and draft posts for review
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Category: content category with URL slug
  - Post: post content and workflow state
  - Bookmark: a post saved by a session
  - VariantSummary: aggregate counts for one variant

# Constants

Post workflow status values:

	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

Experiment-side domain types (variants, events, reports) live in the
abtest package.
*/
package models
