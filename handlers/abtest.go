// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/farstorm/guidepost/abtest"
	"github.com/farstorm/guidepost/auth"
	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/middleware"
	"github.com/farstorm/guidepost/models"
	"github.com/farstorm/guidepost/session"
)

// ExperimentEndpoint is the page path the experiment runs on, recorded
// with every event.
const ExperimentEndpoint = "/experiment"

var experimentPage = template.Must(template.New("experiment").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Far Storm</title>
</head>
<body>
<main>
<h1>Enjoying this post?</h1>
<p>Let the author know.</p>
<button id="appreciate" type="button" data-variant="{{.Variant}}">{{.Label}}</button>
</main>
<script>
document.getElementById("appreciate").addEventListener("click", function () {
  fetch("/experiment/click", { method: "POST" });
});
</script>
</body>
</html>
`))

type ExperimentHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *session.Manager
	engine   *abtest.Engine
	recorder *abtest.Recorder
}

func NewExperimentHandler(dbConn *sql.DB, cfg cliparse.Config) *ExperimentHandler {
	exp := abtest.Experiment{
		Name:     cfg.ExperimentName,
		Endpoint: ExperimentEndpoint,
		VariantA: cfg.VariantA,
		VariantB: cfg.VariantB,
	}
	store := &session.Store{DB: dbConn}
	return &ExperimentHandler{
		db:       dbConn,
		cfg:      cfg,
		sessions: &session.Manager{DB: dbConn, CookieName: cfg.SessionCookie},
		engine:   &abtest.Engine{Experiment: exp, Store: store},
		recorder: &abtest.Recorder{
			Experiment: exp,
			Store:      store,
			Log:        &abtest.Log{DB: dbConn},
			Policy:     cfg.ExposurePolicy,
		},
	}
}

// Page handles GET /experiment
//
// Everyone gets a page: bots, broken sessions, storage outages. What
// varies is whether the view enters the experiment. When the session or
// assignment path fails the page falls back to the control label and
// logs nothing.
func (h *ExperimentHandler) Page(w http.ResponseWriter, r *http.Request) {
	// The page body depends on the session cookie; shared caches must
	// never store it.
	middleware.NoStore(w)

	sessionID, err := h.sessions.Ensure(w, r)
	if err != nil {
		slog.Error("session ensure failed", "error", err)
		h.renderPage(w, h.cfg.VariantA)
		return
	}

	assignment, err := h.assign(r, sessionID)
	if err != nil {
		slog.Error("assignment failed", "session", sessionID, "error", err)
		h.renderPage(w, h.cfg.VariantA)
		return
	}

	meta := h.requestMeta(r)
	eligible := abtest.IsEligibleNavigation(meta)

	// Best effort: a lost exposure must not break the page.
	if err := h.recorder.LogExposureIfFirst(r.Context(), assignment, eligible, meta); err != nil {
		slog.Error("exposure logging failed", "session", sessionID, "error", err)
	}

	h.renderPage(w, assignment.Variant)
}

// Click handles POST /experiment/click
//
// The variant comes from the assignment store only. The request body is
// ignored entirely: a client claiming a variant it was not assigned
// would corrupt the arms.
func (h *ExperimentHandler) Click(w http.ResponseWriter, r *http.Request) {
	middleware.NoStore(w)

	sessionID, err := h.sessions.Ensure(w, r)
	if err != nil {
		slog.Error("session ensure failed", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "experiment unavailable")
		return
	}

	assignment, err := h.engine.GetOrAssign(r.Context(), sessionID)
	if err != nil {
		slog.Error("assignment failed", "session", sessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "experiment unavailable")
		return
	}

	// A lost conversion is logged and counted inside the recorder; the
	// visitor still gets an ok.
	if err := h.recorder.LogConversion(r.Context(), assignment, h.requestMeta(r)); err != nil {
		slog.Error("conversion logging failed", "session", sessionID, "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClickResponse{
		Status:  "ok",
		Variant: assignment.Variant,
	})
}

// assign resolves the session's variant, honoring the ?force=a|b QA
// parameter. Forced assignments are marked so analysis can exclude them.
func (h *ExperimentHandler) assign(r *http.Request, sessionID string) (abtest.Assignment, error) {
	switch r.URL.Query().Get("force") {
	case "a":
		return h.engine.Force(r.Context(), sessionID, h.cfg.VariantA)
	case "b":
		return h.engine.Force(r.Context(), sessionID, h.cfg.VariantB)
	}
	return h.engine.GetOrAssign(r.Context(), sessionID)
}

func (h *ExperimentHandler) requestMeta(r *http.Request) abtest.RequestMeta {
	return abtest.RequestMeta{
		UserAgent:    r.UserAgent(),
		SecFetchMode: r.Header.Get("Sec-Fetch-Mode"),
		SecFetchDest: r.Header.Get("Sec-Fetch-Dest"),
		SecFetchSite: r.Header.Get("Sec-Fetch-Site"),
		IPHash:       auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt),
	}
}

func (h *ExperimentHandler) renderPage(w http.ResponseWriter, variant string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Variant string
		Label   string
	}{Variant: variant, Label: buttonLabel(variant)}
	if err := experimentPage.Execute(w, data); err != nil {
		slog.Error("page render failed", "error", err)
	}
}

// buttonLabel turns the variant token into the visible button text.
func buttonLabel(variant string) string {
	switch variant {
	case "kudos":
		return "Give kudos"
	case "thanks":
		return "Say thanks"
	}
	return variant
}
