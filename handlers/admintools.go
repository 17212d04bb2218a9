// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/farstorm/guidepost/abtest"
	"github.com/farstorm/guidepost/auth"
	"github.com/farstorm/guidepost/cliparse"
	"github.com/farstorm/guidepost/middleware"
	"github.com/farstorm/guidepost/models"
)

// AdminToolsHandler exposes the operator maintenance endpoints: bot
// purge and the per-variant event summary. Everything here requires
// the admin key.
type AdminToolsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	log *abtest.Log
}

func NewAdminToolsHandler(db *sql.DB, cfg cliparse.Config) *AdminToolsHandler {
	return &AdminToolsHandler{db: db, cfg: cfg, log: &abtest.Log{DB: db}}
}

// PurgeDryRun handles GET /admin-tools/ab-purge-bots/dry-run
func (h *AdminToolsHandler) PurgeDryRun(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, true)
}

// PurgeRun handles GET /admin-tools/ab-purge-bots/run
func (h *AdminToolsHandler) PurgeRun(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, false)
}

func (h *AdminToolsHandler) purge(w http.ResponseWriter, r *http.Request, dryRun bool) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	result, err := h.log.PurgeSuspectedBots(r.Context(), dryRun)
	if err != nil {
		slog.Error("bot purge failed", "dry_run", dryRun, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Purge failed")
		return
	}

	mode := "run"
	detail := "events deleted"
	if dryRun {
		mode = "dry-run"
		detail = "events that would be deleted"
	}
	slog.Info("bot purge finished",
		"mode", mode,
		"probe_prefix", result.ProbePrefix,
		"short_session", result.ShortSession,
		"burst_minutes", result.BurstMinutes,
	)

	middleware.JSONResponse(w, http.StatusOK, models.PurgeResponse{
		Status:       "ok",
		Mode:         mode,
		Detail:       detail,
		ProbePrefix:  result.ProbePrefix,
		ShortSession: result.ShortSession,
		BurstMinutes: result.BurstMinutes,
		Total:        result.Total(),
	})
}

// Summary handles GET /admin-tools/ab-summary
// Per-variant exposures, conversions, rates, and a traffic split check.
// Pass ?exclude_forced=1 to leave QA sessions out.
func (h *AdminToolsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	excludeForced := r.URL.Query().Get("exclude_forced") == "1"
	counts, err := h.log.CountByVariantKind(r.Context(), h.cfg.ExperimentName, excludeForced)
	if err != nil {
		slog.Error("event aggregation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Aggregation failed")
		return
	}

	split := abtest.CheckTrafficSplit(counts)

	resp := models.SummaryResponse{
		Experiment:    h.cfg.ExperimentName,
		Endpoint:      ExperimentEndpoint,
		TotalEvents:   counts.Total(),
		Variants:      []models.VariantSummary{},
		SplitBalanced: split.Balanced,
	}
	for _, share := range split.Shares {
		vc := counts[share.Variant]
		summary := models.VariantSummary{
			Variant:       share.Variant,
			Exposures:     vc.Exposures,
			Conversions:   vc.Conversions,
			ExposureShare: share.Share,
		}
		if vc.Exposures > 0 {
			summary.ConversionRate = float64(vc.Conversions) / float64(vc.Exposures)
		}
		resp.Variants = append(resp.Variants, summary)
		if share.Flagged {
			resp.SplitFlagged = append(resp.SplitFlagged, share.Variant)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
