// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/farstorm/guidepost/auth"
	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/middleware"
	"github.com/farstorm/guidepost/models"
)

type CategoryHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCategoryHandler(db *sql.DB, cfg cliparse.Config) *CategoryHandler {
	return &CategoryHandler{db: db, cfg: cfg}
}

// CreateCategory handles POST /categories (admin only)
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateCategoryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	slug := Slugify(req.Name)
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must contain letters or digits")
		return
	}

	var exists bool
	err := h.db.QueryRow("SELECT EXISTS (SELECT 1 FROM category WHERE slug = $1 OR name = $2)", slug, req.Name).Scan(&exists)
	if err != nil {
		slog.Error("failed to check category", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusConflict, "Category already exists")
		return
	}

	categoryID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate category ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO category (id, name, slug, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, categoryID, req.Name, slug, req.Description, time.Now())
	if err != nil {
		slog.Error("failed to insert category", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	slog.Info("category created", "category_id", categoryID, "slug", slug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateCategoryResponse{
		CategoryID: categoryID,
		Slug:       slug,
	})
}

// ListCategories handles GET /categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, name, slug, COALESCE(description, ''), created_at
		FROM category
		ORDER BY name
	`)
	if err != nil {
		slog.Error("failed to query categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			slog.Error("failed to scan category", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, categories)
}

// GetCategory handles GET /categories/{slug}
// Returns the category with its approved posts.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var c models.Category
	err := h.db.QueryRow(`
		SELECT id, name, slug, COALESCE(description, ''), created_at
		FROM category
		WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		slog.Error("failed to query category", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, title, slug, content, category_id, author_name, status, updated_at, published_at
		FROM post
		WHERE category_id = $1 AND status = $2
		ORDER BY published_at DESC
	`, c.ID, models.StatusApproved)
	if err != nil {
		slog.Error("failed to query posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.CategoryID, &p.AuthorName, &p.Status, &p.UpdatedAt, &p.PublishedAt); err != nil {
			slog.Error("failed to scan post", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CategoryWithPosts{
		Category: c,
		Posts:    posts,
	})
}

// Slugify lowercases the name and collapses everything else to hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
