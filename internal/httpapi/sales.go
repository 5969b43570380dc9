package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"spbunet/api/internal/store"
)

const maxSalesRows = 500

// decodeRows accepts either a bare JSON array or {"rows":[...]}.
func decodeRows[T any](w http.ResponseWriter, r *http.Request) ([]T, bool) {
	var raw json.RawMessage
	if !decodeJSON(w, r, 0, &raw) {
		return nil, false
	}
	var rows []T
	var err error
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &rows)
	} else {
		var body struct {
			Rows []T `json:"rows"`
		}
		err = json.Unmarshal(trimmed, &body)
		rows = body.Rows
	}
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return nil, false
	}
	if len(rows) == 0 || len(rows) > maxSalesRows {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("rows must contain 1 to %d entries", maxSalesRows))
		return nil, false
	}
	return rows, true
}

func salesFilter(w http.ResponseWriter, r *http.Request) (store.SalesFilter, bool) {
	locationID, ok := queryInt(r, "location_id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid location_id")
		return store.SalesFilter{}, false
	}
	period := r.URL.Query().Get("period")
	if period != "" && !store.ValidPeriod(period) {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "period must be YYYY-MM")
		return store.SalesFilter{}, false
	}
	return store.SalesFilter{LocationID: locationID, Period: period}, true
}

func (a *App) handleListFuelSales(w http.ResponseWriter, r *http.Request) {
	f, ok := salesFilter(w, r)
	if !ok {
		return
	}
	sales, err := a.store.ListFuelSales(r.Context(), f)
	if err != nil {
		a.writeStoreError(w, err, "fuel sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

// handleUpsertFuelSales saves a batch of monthly volumes. Every row is
// validated before anything is written.
func (a *App) handleUpsertFuelSales(w http.ResponseWriter, r *http.Request) {
	rows, ok := decodeRows[store.FuelSale](w, r)
	if !ok {
		return
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("row %d: %v", i, err))
			return
		}
	}
	saved, err := a.store.UpsertFuelSales(r.Context(), rows)
	if err != nil {
		a.writeStoreError(w, err, "fuel sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": saved})
}

func (a *App) handleDeleteFuelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteFuelSale(r.Context(), id); err != nil {
		a.writeStoreError(w, err, "fuel sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) handleListLPGSales(w http.ResponseWriter, r *http.Request) {
	f, ok := salesFilter(w, r)
	if !ok {
		return
	}
	sales, err := a.store.ListLPGSales(r.Context(), f)
	if err != nil {
		a.writeStoreError(w, err, "lpg sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *App) handleUpsertLPGSales(w http.ResponseWriter, r *http.Request) {
	rows, ok := decodeRows[store.LPGSale](w, r)
	if !ok {
		return
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("row %d: %v", i, err))
			return
		}
	}
	saved, err := a.store.UpsertLPGSales(r.Context(), rows)
	if err != nil {
		a.writeStoreError(w, err, "lpg sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": saved})
}

func (a *App) handleDeleteLPGSale(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteLPGSale(r.Context(), id); err != nil {
		a.writeStoreError(w, err, "lpg sale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
