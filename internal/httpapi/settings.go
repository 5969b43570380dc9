package httpapi

import (
	"net/http"
	"strings"

	"spbunet/api/internal/svgsafe"
)

const maxSettingsBytes = 4 << 20

func (a *App) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.GetSettings(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": st})
}

func (a *App) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MapSVG string `json:"map_svg"`
	}
	if !decodeJSON(w, r, maxSettingsBytes, &body) {
		return
	}
	svg := strings.TrimSpace(svgsafe.Clean(body.MapSVG))
	if !strings.Contains(strings.ToLower(svg), "<svg") {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "map_svg must contain an <svg> element")
		return
	}
	st, err := a.store.PutSettings(r.Context(), svg)
	if err != nil {
		a.writeStoreError(w, err, "settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": st})
}
