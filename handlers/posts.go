// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/farstorm/guidepost/auth"
	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/middleware"
	"github.com/farstorm/guidepost/models"
)

type PostHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPostHandler(db *sql.DB, cfg cliparse.Config) *PostHandler {
	return &PostHandler{db: db, cfg: cfg}
}

// CreatePost handles POST /posts
// Submissions start as drafts; status "pending" submits for review
// immediately.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.AuthorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "author_name is required")
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if status != models.StatusDraft && status != models.StatusPending {
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be draft or pending")
		return
	}

	var categoryID string
	err := h.db.QueryRow("SELECT id FROM category WHERE slug = $1", req.CategorySlug).Scan(&categoryID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		slog.Error("failed to query category", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	postID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate post ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	// Slugs get a random suffix so identical titles never collide.
	suffix, err := auth.GenerateID(4)
	if err != nil {
		slog.Error("failed to generate slug suffix", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	slug := Slugify(req.Title)
	if slug == "" {
		slug = "post"
	}
	slug = slug + "-" + suffix

	_, err = h.db.Exec(`
		INSERT INTO post (id, title, slug, content, category_id, author_name, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, postID, req.Title, slug, req.Content, categoryID, req.AuthorName, status, time.Now())
	if err != nil {
		slog.Error("failed to insert post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	slog.Info("post created", "post_id", postID, "status", status, "author", req.AuthorName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePostResponse{
		PostID: postID,
		Slug:   slug,
		Status: status,
	})
}

// GetPost handles GET /posts/{slug}
// Only approved posts are public.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var p models.Post
	err := h.db.QueryRow(`
		SELECT id, title, slug, content, category_id, author_name, status, updated_at, published_at
		FROM post
		WHERE slug = $1
	`, slug).Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.CategoryID, &p.AuthorName, &p.Status, &p.UpdatedAt, &p.PublishedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if p.Status != models.StatusApproved {
		// Unpublished posts are invisible, not forbidden.
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// SubmitPost handles POST /posts/{id}/submit
// Moves a draft into the review queue.
func (h *PostHandler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.StatusDraft, models.StatusPending, "Only drafts can be submitted")
}

// ApprovePost handles POST /posts/{id}/approve (admin only)
func (h *PostHandler) ApprovePost(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}
	h.transition(w, r, models.StatusPending, models.StatusApproved, "Only pending posts can be approved")
}

// RejectPost handles POST /posts/{id}/reject (admin only)
func (h *PostHandler) RejectPost(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}
	h.transition(w, r, models.StatusPending, models.StatusRejected, "Only pending posts can be rejected")
}

// Dashboard handles GET /dashboard (admin only)
// Lists posts awaiting review plus lingering drafts.
func (h *PostHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	pending, err := h.postsByStatus(models.StatusPending)
	if err != nil {
		slog.Error("failed to query pending posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	drafts, err := h.postsByStatus(models.StatusDraft)
	if err != nil {
		slog.Error("failed to query draft posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DashboardResponse{
		PendingPosts: pending,
		DraftPosts:   drafts,
	})
}

// transition moves a post from one workflow status to another.
func (h *PostHandler) transition(w http.ResponseWriter, r *http.Request, from, to, conflictMsg string) {
	postID := r.PathValue("id")
	if postID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "post id is required")
		return
	}

	var status string
	err := h.db.QueryRow("SELECT status FROM post WHERE id = $1", postID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != from {
		middleware.ErrorResponse(w, http.StatusConflict, conflictMsg)
		return
	}

	if to == models.StatusApproved {
		_, err = h.db.Exec(`
			UPDATE post SET status = $1, updated_at = $2, published_at = $2
			WHERE id = $3 AND status = $4
		`, to, time.Now(), postID, from)
	} else {
		_, err = h.db.Exec(`
			UPDATE post SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`, to, time.Now(), postID, from)
	}
	if err != nil {
		slog.Error("failed to update post status", "error", err, "post_id", postID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	slog.Info("post status changed", "post_id", postID, "from", from, "to", to)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"post_id": postID,
		"status":  to,
	})
}

func (h *PostHandler) postsByStatus(status string) ([]models.Post, error) {
	rows, err := h.db.Query(`
		SELECT id, title, slug, content, category_id, author_name, status, updated_at, published_at
		FROM post
		WHERE status = $1
		ORDER BY updated_at DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.CategoryID, &p.AuthorName, &p.Status, &p.UpdatedAt, &p.PublishedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
