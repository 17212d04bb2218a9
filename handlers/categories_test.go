// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farstorm/guidepost/auth"
	"github.com/farstorm/guidepost/models"
	"github.com/farstorm/guidepost/testutil"
)

func TestCreateCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewCategoryHandler(db, cfg)
	adminKey := auth.GenerateAdminKey(cfg.AdminKeySalt)
	adminHeaders := map[string]string{"X-Admin-Key": adminKey}

	t.Run("requires admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/categories", models.CreateCategoryRequest{Name: "News"}, nil)
		w := httptest.NewRecorder()
		h.CreateCategory(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("creates with slug", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/categories", models.CreateCategoryRequest{
			Name:        "Show & Tell",
			Description: "Projects and demos",
		}, adminHeaders)
		w := httptest.NewRecorder()
		h.CreateCategory(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.CreateCategoryResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Slug != "show-tell" {
			t.Errorf("slug = %q, want show-tell", resp.Slug)
		}
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/categories", models.CreateCategoryRequest{Name: "Show & Tell"}, adminHeaders)
		w := httptest.NewRecorder()
		h.CreateCategory(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("empty name", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/categories", models.CreateCategoryRequest{}, adminHeaders)
		w := httptest.NewRecorder()
		h.CreateCategory(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestListCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewCategoryHandler(db, testutil.GetTestConfig())

	t.Run("empty list", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/categories", nil)
		w := httptest.NewRecorder()
		h.ListCategories(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var categories []models.Category
		testutil.AssertJSON(t, w, &categories)
		if len(categories) != 0 {
			t.Errorf("categories = %d, want 0", len(categories))
		}
	})

	testutil.CreateTestCategory(t, db, "Beta", "beta")
	testutil.CreateTestCategory(t, db, "Alpha", "alpha")

	t.Run("sorted by name", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/categories", nil)
		w := httptest.NewRecorder()
		h.ListCategories(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var categories []models.Category
		testutil.AssertJSON(t, w, &categories)
		if len(categories) != 2 {
			t.Fatalf("categories = %d, want 2", len(categories))
		}
		if categories[0].Name != "Alpha" || categories[1].Name != "Beta" {
			t.Errorf("order = %s, %s; want Alpha, Beta", categories[0].Name, categories[1].Name)
		}
	})
}

func TestGetCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewCategoryHandler(db, testutil.GetTestConfig())
	categoryID := testutil.CreateTestCategory(t, db, "General", "general")
	testutil.CreateTestPost(t, db, categoryID, "visible-post", "approved")
	testutil.CreateTestPost(t, db, categoryID, "invisible-draft", "draft")

	t.Run("with approved posts only", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/categories/general", nil)
		req.SetPathValue("slug", "general")
		w := httptest.NewRecorder()
		h.GetCategory(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.CategoryWithPosts
		testutil.AssertJSON(t, w, &resp)
		if resp.Category.Slug != "general" {
			t.Errorf("category slug = %q", resp.Category.Slug)
		}
		if len(resp.Posts) != 1 {
			t.Fatalf("posts = %d, want 1", len(resp.Posts))
		}
		if resp.Posts[0].Slug != "visible-post" {
			t.Errorf("post slug = %q, want visible-post", resp.Posts[0].Slug)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/categories/nope", nil)
		req.SetPathValue("slug", "nope")
		w := httptest.NewRecorder()
		h.GetCategory(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"General", "general"},
		{"Show & Tell", "show-tell"},
		{"  Spaces  Around  ", "spaces-around"},
		{"already-slugged", "already-slugged"},
		{"C++ Tips!", "c-tips"},
		{"123 Go", "123-go"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
