package httpapi

import (
	"net/http"

	"spbunet/api/internal/store"
)

func (a *App) handleListLocations(w http.ResponseWriter, r *http.Request) {
	var f store.LocationFilter
	regionID, ok := queryInt(r, "region_id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid region_id")
		return
	}
	f.RegionID = regionID
	if t := r.URL.Query().Get("type"); t != "" {
		norm, ok := store.NormalizeLocationType(t)
		if !ok {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "type must be SPBU or SPBE")
			return
		}
		f.Type = norm
	}

	locations, err := a.store.ListLocations(r.Context(), f)
	if err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

func (a *App) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	loc, err := a.store.GetLocation(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": loc})
}

func (a *App) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var body store.LocationInput
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if err := body.Normalize(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	loc, err := a.store.CreateLocation(r.Context(), body)
	if err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"location": loc})
}

func (a *App) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body store.LocationInput
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if err := body.Normalize(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	loc, err := a.store.UpdateLocation(r.Context(), id, body)
	if err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": loc})
}

func (a *App) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteLocation(r.Context(), id); err != nil {
		a.writeStoreError(w, err, "location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
