// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/farstorm/guidepost/models"
	"github.com/farstorm/guidepost/testutil"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// pageRequest builds an eligible browser navigation to the experiment page.
func pageRequest(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Site", "none")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func clickRequest(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest("POST", "/experiment/click", nil)
	req.Header.Set("User-Agent", browserUA)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

func countEvents(t *testing.T, db *sql.DB, eventType string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM ab_event WHERE event_type = $1", eventType).Scan(&n); err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	return n
}

func TestExperimentPage_AssignsAndExposesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewExperimentHandler(db, cfg)

	// First view assigns and logs the exposure.
	w := httptest.NewRecorder()
	h.Page(w, pageRequest("/experiment", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := sessionCookie(t, w, cfg.SessionCookie)

	body := w.Body.String()
	if !strings.Contains(body, `id="appreciate"`) {
		t.Error("expected the appreciation button in the page")
	}
	var variant string
	switch {
	case strings.Contains(body, `data-variant="kudos"`):
		variant = "kudos"
	case strings.Contains(body, `data-variant="thanks"`):
		variant = "thanks"
	default:
		t.Fatal("page does not carry a known variant")
	}

	// Repeat views keep the variant and add no exposures.
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		h.Page(w, pageRequest("/experiment", cookie))
		testutil.AssertStatus(t, w, http.StatusOK)
		if !strings.Contains(w.Body.String(), `data-variant="`+variant+`"`) {
			t.Fatalf("variant changed on view %d", i)
		}
	}

	if got := countEvents(t, db, "exposure"); got != 1 {
		t.Errorf("exposures = %d, want 1 after repeated views", got)
	}
	if got := countEvents(t, db, "conversion"); got != 0 {
		t.Errorf("conversions = %d, want 0", got)
	}
}

func TestExperimentPage_NoStoreHeaders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewExperimentHandler(db, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	h.Page(w, pageRequest("/experiment", nil))

	cc := w.Header().Get("Cache-Control")
	if !strings.Contains(cc, "no-store") || !strings.Contains(cc, "max-age=0") {
		t.Errorf("Cache-Control = %q, want no-store and max-age=0", cc)
	}
	if w.Header().Get("Pragma") != "no-cache" {
		t.Error("expected Pragma: no-cache")
	}
	if w.Header().Get("Expires") != "0" {
		t.Error("expected Expires: 0")
	}
	if w.Header().Get("Vary") != "Cookie" {
		t.Error("expected Vary: Cookie")
	}
}

func TestExperimentPage_BotGetsPageNoExposure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewExperimentHandler(db, testutil.GetTestConfig())

	// Bots get the page (200) but never enter the denominator.
	req := httptest.NewRequest("GET", "/experiment", nil)
	req.Header.Set("User-Agent", "curl/8.4.0")
	w := httptest.NewRecorder()
	h.Page(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := countEvents(t, db, "exposure"); got != 0 {
		t.Errorf("exposures = %d, want 0 for bot traffic", got)
	}
}

func TestExperimentPage_NonNavigationNoExposure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewExperimentHandler(db, testutil.GetTestConfig())

	// A browser prefetch: real UA, but not a committed navigation.
	req := httptest.NewRequest("GET", "/experiment", nil)
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Site", "none")
	w := httptest.NewRecorder()
	h.Page(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := countEvents(t, db, "exposure"); got != 0 {
		t.Errorf("exposures = %d, want 0 for prefetch", got)
	}
}

func TestExperimentClick_ConversionsMultiply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewExperimentHandler(db, cfg)

	// Click without ever loading the page: the first conversion
	// backfills the exposure.
	w := httptest.NewRecorder()
	h.Click(w, clickRequest(nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := sessionCookie(t, w, cfg.SessionCookie)

	var resp models.ClickResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Variant != "kudos" && resp.Variant != "thanks" {
		t.Errorf("variant = %q, want an experiment arm", resp.Variant)
	}

	const extraClicks = 3
	for i := 0; i < extraClicks; i++ {
		w := httptest.NewRecorder()
		h.Click(w, clickRequest(cookie))
		testutil.AssertStatus(t, w, http.StatusOK)

		var again models.ClickResponse
		testutil.AssertJSON(t, w, &again)
		if again.Variant != resp.Variant {
			t.Fatalf("variant changed across clicks: %q then %q", resp.Variant, again.Variant)
		}
	}

	if got := countEvents(t, db, "conversion"); got != extraClicks+1 {
		t.Errorf("conversions = %d, want %d", got, extraClicks+1)
	}
	if got := countEvents(t, db, "exposure"); got != 1 {
		t.Errorf("exposures = %d, want exactly 1 backfilled", got)
	}
}

func TestExperimentClick_IgnoresBodyVariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewExperimentHandler(db, cfg)

	// Establish an assignment.
	w := httptest.NewRecorder()
	h.Page(w, pageRequest("/experiment", nil))
	cookie := sessionCookie(t, w, cfg.SessionCookie)

	var assigned string
	if err := db.QueryRow("SELECT variant FROM ab_assignment WHERE session_id = $1", cookie.Value).Scan(&assigned); err != nil {
		t.Fatalf("Failed to read assignment: %v", err)
	}

	// The client claims a variant of its own invention.
	req := testutil.MakeRequest("POST", "/experiment/click", map[string]string{"variant": "bogus-arm"}, nil)
	req.Header.Set("User-Agent", browserUA)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.Click(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ClickResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Variant != assigned {
		t.Errorf("response variant = %q, want server-assigned %q", resp.Variant, assigned)
	}

	// Nothing in the log carries the invented variant.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM ab_event WHERE variant = 'bogus-arm'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("events with invented variant = %d, want 0", n)
	}
}

func TestExperimentPage_ForceVariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewExperimentHandler(db, cfg)

	w := httptest.NewRecorder()
	h.Page(w, pageRequest("/experiment?force=b", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := sessionCookie(t, w, cfg.SessionCookie)

	if !strings.Contains(w.Body.String(), `data-variant="thanks"`) {
		t.Error("expected force=b to pin the treatment variant")
	}

	var variant string
	var forced bool
	err := db.QueryRow("SELECT variant, is_forced FROM ab_assignment WHERE session_id = $1", cookie.Value).Scan(&variant, &forced)
	if err != nil {
		t.Fatalf("Failed to read assignment: %v", err)
	}
	if variant != "thanks" || !forced {
		t.Errorf("assignment = (%q, forced=%v), want (thanks, true)", variant, forced)
	}

	// Events from the forced session carry the flag.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM ab_event WHERE session_id = $1 AND is_forced = FALSE", cookie.Value).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("unforced events from forced session = %d, want 0", n)
	}

	// force=a flips the same session to control.
	w = httptest.NewRecorder()
	h.Page(w, pageRequest("/experiment?force=a", cookie))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `data-variant="kudos"`) {
		t.Error("expected force=a to pin the control variant")
	}
}

func TestExperimentPage_AssignmentStableAcrossSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	h := NewExperimentHandler(db, cfg)

	// Distinct sessions land on both arms over enough samples. Bound is
	// loose on purpose; this guards against a pinned coin, not drift.
	variants := map[string]int{}
	const sessions = 100
	for i := 0; i < sessions; i++ {
		w := httptest.NewRecorder()
		h.Page(w, pageRequest("/experiment", nil))
		cookie := sessionCookie(t, w, cfg.SessionCookie)

		var variant string
		if err := db.QueryRow("SELECT variant FROM ab_assignment WHERE session_id = $1", cookie.Value).Scan(&variant); err != nil {
			t.Fatalf("Failed to read assignment %d: %v", i, err)
		}
		variants[variant]++
	}

	for variant, n := range variants {
		share := float64(n) / sessions
		if share < 0.30 || share > 0.70 {
			t.Errorf("variant %s share = %.0f%%, outside [30%%, 70%%]", variant, share*100)
		}
	}
}
