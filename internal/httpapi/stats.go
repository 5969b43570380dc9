package httpapi

import (
	"net/http"
	"strings"

	"spbunet/api/internal/metrics"
	"spbunet/api/internal/slug"
	"spbunet/api/internal/store"

	"github.com/go-chi/chi/v5"
)

func (a *App) handleListRegionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.ListRegionStats(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "region stat")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// statKey normalises a region_key: ALL in any case, otherwise the region slug.
func statKey(raw string) string {
	if store.IsAllKey(raw) {
		return store.AllKey
	}
	return slug.Make(raw)
}

func (a *App) handleGetRegionStat(w http.ResponseWriter, r *http.Request) {
	key := statKey(chi.URLParam(r, "key"))
	if key == "" {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "region stat not found")
		return
	}
	st, err := a.store.GetRegionStat(r.Context(), key)
	if err != nil {
		a.writeStoreError(w, err, "region stat")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stat": st})
}

func validateStat(st *store.RegionStat) string {
	raw := strings.TrimSpace(st.RegionKey)
	st.RegionName = strings.TrimSpace(st.RegionName)
	if store.IsAllKey(raw) {
		return "the ALL row is computed and cannot be written"
	}
	st.RegionKey = slug.Make(raw)
	if st.RegionKey == "" {
		return "region_key is required"
	}
	if st.RegionName == "" {
		st.RegionName = raw
	}
	if st.SPBUTotal < 0 || st.SPBETotal < 0 || st.LPGAgentTotal < 0 ||
		st.PangkalanTotal < 0 || st.PertashopTotal < 0 ||
		st.FuelVolumeKL < 0 || st.LPGVolumeTon < 0 {
		return "totals must not be negative"
	}
	return ""
}

// recompute refreshes the ALL row after a regional write. A failure here
// leaves the regional write in place; the scheduled recompute job catches up.
func (a *App) recompute(r *http.Request) (*store.RegionStat, bool) {
	all, err := a.store.RecomputeAll(r.Context())
	metrics.RecordRecompute(err)
	if err != nil {
		a.log.WithError(err).Error("recompute ALL row")
		return nil, false
	}
	return &all, true
}

func (a *App) handleUpsertRegionStat(w http.ResponseWriter, r *http.Request) {
	var body store.RegionStat
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if msg := validateStat(&body); msg != "" {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}
	st, err := a.store.UpsertRegionStat(r.Context(), body)
	if err != nil {
		a.writeStoreError(w, err, "region stat")
		return
	}

	resp := map[string]any{"stat": st}
	if all, ok := a.recompute(r); ok {
		resp["all"] = all
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleDeleteRegionStat(w http.ResponseWriter, r *http.Request) {
	key := statKey(chi.URLParam(r, "key"))
	if key == "" {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "region stat not found")
		return
	}
	if err := a.store.DeleteRegionStat(r.Context(), key); err != nil {
		a.writeStoreError(w, err, "region stat")
		return
	}

	resp := map[string]any{"ok": true}
	if all, ok := a.recompute(r); ok {
		resp["all"] = all
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleRecomputeStats(w http.ResponseWriter, r *http.Request) {
	all, ok := a.recompute(r)
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"all": all})
}
