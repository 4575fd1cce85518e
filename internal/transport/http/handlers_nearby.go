package httptransport

import (
	"net/http"
	"strconv"

	"bloodlink/internal/domain"
	"bloodlink/internal/matching"
	dErrors "bloodlink/pkg/domain-errors"
)

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "lat must be a number"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "lng must be a number"))
		return
	}

	kind := matching.Kind(q.Get("kind"))
	if kind == "" {
		kind = matching.KindDonor
	}

	var radius float64
	if raw := q.Get("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			writeError(w, dErrors.New(dErrors.CodeValidation, "radius_km must be a positive number"))
			return
		}
	}

	matches, err := h.matching.QueryNearby(r.Context(), domain.Coordinate{Lat: lat, Lng: lng}, kind, radius, regionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    string(kind),
		"matches": matches,
	})
}
