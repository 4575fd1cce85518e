package httptransport

import (
	"net/http"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

type setDisasterModeBody struct {
	Region  string `json:"region"`
	Active  bool   `json:"active"`
	ActorID string `json:"actor_id"`
}

type disasterModeBody struct {
	Region      string `json:"region"`
	Active      bool   `json:"active"`
	ActivatedAt string `json:"activated_at,omitempty"`
	ActivatedBy string `json:"activated_by,omitempty"`
}

func toDisasterModeBody(s domain.DisasterModeState) disasterModeBody {
	out := disasterModeBody{Region: s.Region, Active: s.Active, ActivatedBy: s.ActivatedBy}
	if !s.ActivatedAt.IsZero() {
		out.ActivatedAt = s.ActivatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

func (h *Handler) handleSetDisasterMode(w http.ResponseWriter, r *http.Request) {
	var body setDisasterModeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Region == "" {
		body.Region = "default"
	}
	if body.ActorID == "" {
		body.ActorID = requestcontext.ActorID(r.Context())
	}
	if body.ActorID == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "actor_id is required"))
		return
	}
	previous, err := h.disaster.SetActive(r.Context(), body.Region, body.Active, body.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := h.disaster.State(r.Context(), body.Region)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": previous != body.Active,
		"state":   toDisasterModeBody(state),
	})
}

func (h *Handler) handleGetDisasterMode(w http.ResponseWriter, r *http.Request) {
	region := regionParam(r)
	state, err := h.disaster.State(r.Context(), region)
	if err != nil {
		writeError(w, err)
		return
	}
	if state.Region == "" {
		state.Region = region
	}
	writeJSON(w, http.StatusOK, toDisasterModeBody(state))
}
