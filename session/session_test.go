// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farstorm/guidepost/abtest"
	"github.com/farstorm/guidepost/testutil"
)

const testExperiment = "button_label_kudos_vs_thanks"

func TestManagerEnsure_NewSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mgr := &Manager{DB: db, CookieName: "gp_session"}

	req := httptest.NewRequest("GET", "/experiment", nil)
	w := httptest.NewRecorder()

	id, err := mgr.Ensure(w, req)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if id == "" {
		t.Fatal("Ensure() returned empty session id")
	}

	// Cookie was set with the session id
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "gp_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected gp_session cookie to be set")
	}
	if cookie.Value != id {
		t.Errorf("cookie value = %q, want %q", cookie.Value, id)
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("expected SameSite=Lax cookie")
	}

	// Session row exists
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM ab_session WHERE id = $1", id).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("session rows = %d, want 1", count)
	}
}

func TestManagerEnsure_ExistingCookie(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mgr := &Manager{DB: db, CookieName: "gp_session"}

	req := httptest.NewRequest("GET", "/experiment", nil)
	req.AddCookie(&http.Cookie{Name: "gp_session", Value: "existing-session-token"})
	w := httptest.NewRecorder()

	id, err := mgr.Ensure(w, req)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if id != "existing-session-token" {
		t.Errorf("Ensure() = %q, want existing token", id)
	}

	// No new cookie issued
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no Set-Cookie for existing session")
	}

	// Calling twice is a no-op on the row count
	if _, err := mgr.Ensure(httptest.NewRecorder(), req); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM ab_session WHERE id = $1", id).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("session rows = %d, want 1", count)
	}
}

func TestManagerFromRequest(t *testing.T) {
	mgr := &Manager{CookieName: "gp_session"}

	req := httptest.NewRequest("GET", "/bookmarks", nil)
	if _, ok := mgr.FromRequest(req); ok {
		t.Error("expected no session without cookie")
	}

	req.AddCookie(&http.Cookie{Name: "gp_session", Value: "tok"})
	id, ok := mgr.FromRequest(req)
	if !ok || id != "tok" {
		t.Errorf("FromRequest() = %q, %v; want tok, true", id, ok)
	}
}

func TestStore_CreateIsInsertIfAbsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	sessionID := testutil.CreateTestSession(t, db)
	store := &Store{DB: db}
	ctx := context.Background()

	first := abtest.Assignment{
		SessionID:  sessionID,
		Experiment: testExperiment,
		Variant:    "kudos",
		CreatedAt:  time.Now(),
	}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A second create with a different variant must not overwrite.
	second := first
	second.Variant = "thanks"
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("Create() second error = %v", err)
	}

	got, err := store.Get(ctx, sessionID, testExperiment)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Variant != "kudos" {
		t.Errorf("variant = %q, want first writer kudos", got.Variant)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	store := &Store{DB: db}
	_, err := store.Get(context.Background(), "no-such-session", testExperiment)
	if !errors.Is(err, abtest.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_MarkExposed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	sessionID := testutil.CreateTestSession(t, db)
	testutil.CreateTestAssignment(t, db, sessionID, testExperiment, "kudos", false)

	store := &Store{DB: db}
	ctx := context.Background()

	if err := store.MarkExposed(ctx, sessionID, testExperiment); err != nil {
		t.Fatalf("MarkExposed() error = %v", err)
	}
	got, err := store.Get(ctx, sessionID, testExperiment)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Exposed {
		t.Error("expected assignment to be exposed")
	}
	if got.Variant != "kudos" {
		t.Errorf("variant = %q, want kudos untouched", got.Variant)
	}
}

func TestStore_ForceOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	sessionID := testutil.CreateTestSession(t, db)
	testutil.CreateTestAssignment(t, db, sessionID, testExperiment, "kudos", false)

	store := &Store{DB: db}
	ctx := context.Background()

	err := store.Force(ctx, abtest.Assignment{
		SessionID:  sessionID,
		Experiment: testExperiment,
		Variant:    "thanks",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}

	got, err := store.Get(ctx, sessionID, testExperiment)
	if err != nil {
		t.Fatal(err)
	}
	if got.Variant != "thanks" {
		t.Errorf("variant = %q, want thanks", got.Variant)
	}
	if !got.IsForced {
		t.Error("expected forced flag to be set")
	}

	// Force also works with no prior assignment.
	fresh := testutil.CreateTestSession(t, db)
	err = store.Force(ctx, abtest.Assignment{
		SessionID:  fresh,
		Experiment: testExperiment,
		Variant:    "kudos",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("Force() fresh error = %v", err)
	}
	got, err = store.Get(ctx, fresh, testExperiment)
	if err != nil {
		t.Fatal(err)
	}
	if got.Variant != "kudos" || !got.IsForced {
		t.Errorf("fresh forced assignment = %+v", got)
	}
}
