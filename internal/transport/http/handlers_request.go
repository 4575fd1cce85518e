package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/domain"
	"bloodlink/internal/request"
	dErrors "bloodlink/pkg/domain-errors"
)

type createRequestBody struct {
	HospitalID  string            `json:"hospital_id"`
	BloodType   string            `json:"blood_type"`
	UnitsNeeded int               `json:"units_needed"`
	Urgency     string            `json:"urgency"`
	Location    domain.Coordinate `json:"location"`
}

type requestBody struct {
	ID          string            `json:"id"`
	HospitalID  string            `json:"hospital_id"`
	BloodType   string            `json:"blood_type"`
	UnitsNeeded int               `json:"units_needed"`
	Urgency     string            `json:"urgency"`
	Location    domain.Coordinate `json:"location"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toRequestBody(req domain.Request) requestBody {
	return requestBody{
		ID:          req.ID,
		HospitalID:  req.HospitalID,
		BloodType:   string(req.BloodType),
		UnitsNeeded: req.UnitsNeeded,
		Urgency:     string(req.Urgency),
		Location:    req.Location,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
	}
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := h.requests.Create(r.Context(), request.CreateParams{
		HospitalID:  body.HospitalID,
		BloodType:   body.BloodType,
		UnitsNeeded: body.UnitsNeeded,
		Urgency:     body.Urgency,
		Location:    body.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestBody(req))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestBody(req))
}

func (h *Handler) handleRankDonors(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	ranked, err := h.matching.RankDonors(r.Context(), req, regionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"donors": ranked})
}

type donorActionBody struct {
	DonorID string `json:"donor_id"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body donorActionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.DonorID == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "donor_id is required"))
		return
	}
	resp, err := h.requests.Accept(r.Context(), chi.URLParam(r, "requestID"), body.DonorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response_id": resp.ID,
		"request_id":  resp.RequestID,
		"donor_id":    resp.DonorID,
		"status":      string(resp.Status),
		"accepted_at": resp.AcceptedAt,
	})
}

func (h *Handler) handleCancelAcceptance(w http.ResponseWriter, r *http.Request) {
	var body donorActionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.DonorID == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "donor_id is required"))
		return
	}
	if err := h.requests.CancelAcceptance(r.Context(), chi.URLParam(r, "requestID"), body.DonorID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type cancelRequestBody struct {
	HospitalID string `json:"hospital_id"`
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var body cancelRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.CancelRequest(r.Context(), chi.URLParam(r, "requestID"), body.HospitalID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type fulfillBody struct {
	BankID    string         `json:"bank_id"`
	Breakdown map[string]int `json:"breakdown"`
}

func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var body fulfillBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.BankID == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "bank_id is required"))
		return
	}
	breakdown := make(map[domain.BloodType]int, len(body.Breakdown))
	for raw, units := range body.Breakdown {
		bt, err := domain.ParseBloodType(raw)
		if err != nil {
			writeError(w, dErrors.Newf(dErrors.CodeValidation, "breakdown: %v", err))
			return
		}
		breakdown[bt] = units
	}
	lines, err := h.inventory.Fulfill(r.Context(), body.BankID, chi.URLParam(r, "requestID"), breakdown)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "fulfilled",
		"allocated": lines,
	})
}

type registerDonorBody struct {
	ID        string             `json:"id"`
	BloodType string             `json:"blood_type"`
	Location  *domain.Coordinate `json:"location,omitempty"`
}

func (h *Handler) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var body registerDonorBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	donor := domain.Donor{
		ID:        body.ID,
		BloodType: domain.BloodType(body.BloodType),
		Location:  body.Location,
	}
	if err := h.requests.RegisterDonor(r.Context(), donor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": donor.ID})
}

func (h *Handler) handleDonorFeed(w http.ResponseWriter, r *http.Request) {
	donor, err := h.requests.Donor(r.Context(), chi.URLParam(r, "donorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	feed, err := h.matching.RankRequestsForDonor(r.Context(), donor, regionParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(feed))
	for _, item := range feed {
		out = append(out, map[string]any{
			"request":     toRequestBody(item.Request),
			"distance_km": item.DistanceKm,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// regionParam resolves the policy region for a request, defaulting when the
// caller does not scope one.
func regionParam(r *http.Request) string {
	if region := r.URL.Query().Get("region"); region != "" {
		return region
	}
	return "default"
}
