package httpapi

import (
	"net/http"

	"spbunet/api/internal/slug"
	"spbunet/api/internal/store"

	"github.com/go-chi/chi/v5"
)

func (a *App) mapRegions(r *http.Request) ([]store.MapRegion, error) {
	regions, err := a.store.ListRegions(r.Context())
	if err != nil {
		return nil, err
	}
	stats, err := a.store.ListRegionStats(r.Context())
	if err != nil {
		return nil, err
	}
	return store.JoinRegionStats(regions, stats), nil
}

func (a *App) handleMapRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := a.mapRegions(r)
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

// handleMapResolve turns a clicked SVG shape id into the popup payload.
func (a *App) handleMapResolve(w http.ResponseWriter, r *http.Request) {
	regions, err := a.mapRegions(r)
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}

	slugs := make([]string, len(regions))
	for i, mr := range regions {
		slugs[i] = mr.Slug
	}
	i := slug.Match(chi.URLParam(r, "shapeId"), slugs)
	if i < 0 {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "no region for shape")
		return
	}
	match := regions[i]

	locations, err := a.store.ListLocations(r.Context(), store.LocationFilter{RegionID: match.ID})
	if err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region":    match.Region,
		"stats":     match.Stats,
		"locations": locations,
	})
}
