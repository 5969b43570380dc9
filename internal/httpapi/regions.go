package httpapi

import (
	"errors"
	"net/http"

	"spbunet/api/internal/store"
)

// writeStoreError maps store sentinels to responses; anything else is a 500.
func (a *App) writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
	case errors.Is(err, store.ErrConflict):
		writeAPIError(w, http.StatusConflict, "CONFLICT", what+" already exists")
	case errors.Is(err, store.ErrBadReference):
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, store.ErrReservedKey):
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "the ALL row is computed and cannot be written")
	default:
		a.log.WithError(err).WithField("entity", what).Error("store")
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "db error")
	}
}

func (a *App) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := a.store.ListRegions(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (a *App) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	region, err := a.store.GetRegion(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region})
}

func (a *App) handleCreateRegion(w http.ResponseWriter, r *http.Request) {
	var body store.RegionInput
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if err := body.Normalize(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	region, err := a.store.CreateRegion(r.Context(), body)
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"region": region})
}

func (a *App) handleUpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body store.RegionInput
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if err := body.Normalize(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	region, err := a.store.UpdateRegion(r.Context(), id, body)
	if err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region})
}

func (a *App) handleDeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteRegion(r.Context(), id); err != nil {
		a.writeStoreError(w, err, "region")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
