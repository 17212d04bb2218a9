// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farstorm/guidepost/models"
	"github.com/farstorm/guidepost/testutil"
)

func TestBookmarkLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewBookmarkHandler(db, cfg)
	categoryID := testutil.CreateTestCategory(t, db, "General", "general")
	postID := testutil.CreateTestPost(t, db, categoryID, "saved-post", "approved")

	// First bookmark mints a session.
	req := testutil.MakeRequest("PUT", "/bookmarks/"+postID, nil, nil)
	req.SetPathValue("post_id", postID)
	w := httptest.NewRecorder()
	h.AddBookmark(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := sessionCookie(t, w, cfg.SessionCookie)

	// Bookmarking again is idempotent.
	req = testutil.MakeRequest("PUT", "/bookmarks/"+postID, nil, nil)
	req.SetPathValue("post_id", postID)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.AddBookmark(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM bookmark WHERE session_id = $1", cookie.Value).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("bookmark rows = %d, want 1", count)
	}

	// Listing returns it.
	req = testutil.MakeRequest("GET", "/bookmarks", nil, nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ListBookmarks(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var bookmarks []models.Bookmark
	testutil.AssertJSON(t, w, &bookmarks)
	if len(bookmarks) != 1 || bookmarks[0].Slug != "saved-post" {
		t.Errorf("bookmarks = %+v, want single saved-post", bookmarks)
	}

	// Removing deletes the row.
	req = testutil.MakeRequest("DELETE", "/bookmarks/"+postID, nil, nil)
	req.SetPathValue("post_id", postID)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.RemoveBookmark(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Removing again is a 404.
	req = testutil.MakeRequest("DELETE", "/bookmarks/"+postID, nil, nil)
	req.SetPathValue("post_id", postID)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.RemoveBookmark(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestBookmarkVisibilityRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewBookmarkHandler(db, cfg)
	categoryID := testutil.CreateTestCategory(t, db, "General", "general")
	draftID := testutil.CreateTestPost(t, db, categoryID, "unpublished", "draft")

	// Unpublished posts cannot be bookmarked.
	req := testutil.MakeRequest("PUT", "/bookmarks/"+draftID, nil, nil)
	req.SetPathValue("post_id", draftID)
	w := httptest.NewRecorder()
	h.AddBookmark(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// Listing without a session is an empty list, not an error.
	req = testutil.MakeRequest("GET", "/bookmarks", nil, nil)
	w = httptest.NewRecorder()
	h.ListBookmarks(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var bookmarks []models.Bookmark
	testutil.AssertJSON(t, w, &bookmarks)
	if len(bookmarks) != 0 {
		t.Errorf("bookmarks = %d, want 0 without a session", len(bookmarks))
	}
}
