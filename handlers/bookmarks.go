// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/middleware"
	"github.com/farstorm/guidepost/models"
	"github.com/farstorm/guidepost/session"
)

// BookmarkHandler manages session-scoped bookmarks. No accounts: the
// session cookie is the owner.
type BookmarkHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *session.Manager
}

func NewBookmarkHandler(db *sql.DB, cfg cliparse.Config) *BookmarkHandler {
	return &BookmarkHandler{
		db:       db,
		cfg:      cfg,
		sessions: &session.Manager{DB: db, CookieName: cfg.SessionCookie},
	}
}

// AddBookmark handles PUT /bookmarks/{post_id}
// Idempotent: bookmarking twice is one bookmark.
func (h *BookmarkHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("post_id")
	if postID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "post_id is required")
		return
	}

	sessionID, err := h.sessions.Ensure(w, r)
	if err != nil {
		slog.Error("session ensure failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Session error")
		return
	}

	var status string
	err = h.db.QueryRow("SELECT status FROM post WHERE id = $1", postID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != models.StatusApproved {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO bookmark (session_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, post_id) DO NOTHING
	`, sessionID, postID, time.Now())
	if err != nil {
		slog.Error("failed to insert bookmark", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add bookmark")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "bookmarked"})
}

// RemoveBookmark handles DELETE /bookmarks/{post_id}
func (h *BookmarkHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("post_id")
	if postID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "post_id is required")
		return
	}

	sessionID, ok := h.sessions.FromRequest(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Bookmark not found")
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM bookmark WHERE session_id = $1 AND post_id = $2
	`, sessionID, postID)
	if err != nil {
		slog.Error("failed to delete bookmark", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove bookmark")
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Bookmark not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListBookmarks handles GET /bookmarks
// Read-only, so a visitor without a session just gets an empty list.
func (h *BookmarkHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessions.FromRequest(r)
	if !ok {
		middleware.JSONResponse(w, http.StatusOK, []models.Bookmark{})
		return
	}

	rows, err := h.db.Query(`
		SELECT b.post_id, p.title, p.slug, b.created_at
		FROM bookmark b
		JOIN post p ON p.id = b.post_id
		WHERE b.session_id = $1
		ORDER BY b.created_at DESC
	`, sessionID)
	if err != nil {
		slog.Error("failed to query bookmarks", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.PostID, &b.Title, &b.Slug, &b.CreatedAt); err != nil {
			slog.Error("failed to scan bookmark", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate bookmarks", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, bookmarks)
}
