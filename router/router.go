// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/handlers"
	"github.com/farstorm/guidepost/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	experimentHandler := handlers.NewExperimentHandler(db, cfg)
	postHandler := handlers.NewPostHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	bookmarkHandler := handlers.NewBookmarkHandler(db, cfg)
	adminToolsHandler := handlers.NewAdminToolsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Experiment (public)
	mux.HandleFunc("GET /experiment", middleware.WithLogging(experimentHandler.Page))
	mux.HandleFunc("POST /experiment/click", middleware.WithLogging(experimentHandler.Click))

	// Content API (public reads, session-scoped bookmarks)
	mux.HandleFunc("GET /categories", middleware.WithLogging(categoryHandler.ListCategories))
	mux.HandleFunc("GET /categories/{slug}", middleware.WithLogging(categoryHandler.GetCategory))
	mux.HandleFunc("POST /posts", middleware.WithLogging(postHandler.CreatePost))
	mux.HandleFunc("GET /posts/{slug}", middleware.WithLogging(postHandler.GetPost))
	mux.HandleFunc("POST /posts/{id}/submit", middleware.WithLogging(postHandler.SubmitPost))
	mux.HandleFunc("PUT /bookmarks/{post_id}", middleware.WithLogging(bookmarkHandler.AddBookmark))
	mux.HandleFunc("DELETE /bookmarks/{post_id}", middleware.WithLogging(bookmarkHandler.RemoveBookmark))
	mux.HandleFunc("GET /bookmarks", middleware.WithLogging(bookmarkHandler.ListBookmarks))

	// Moderation (admin operations, require X-Admin-Key)
	mux.HandleFunc("POST /categories", middleware.WithLogging(categoryHandler.CreateCategory))
	mux.HandleFunc("POST /posts/{id}/approve", middleware.WithLogging(postHandler.ApprovePost))
	mux.HandleFunc("POST /posts/{id}/reject", middleware.WithLogging(postHandler.RejectPost))
	mux.HandleFunc("GET /dashboard", middleware.WithLogging(postHandler.Dashboard))

	// Admin tools (require X-Admin-Key)
	mux.HandleFunc("GET /admin-tools/ab-purge-bots/dry-run", middleware.WithLogging(adminToolsHandler.PurgeDryRun))
	mux.HandleFunc("GET /admin-tools/ab-purge-bots/run", middleware.WithLogging(adminToolsHandler.PurgeRun))
	mux.HandleFunc("GET /admin-tools/ab-summary", middleware.WithLogging(adminToolsHandler.Summary))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("guidepost API v1"))
	})

	return mux
}
