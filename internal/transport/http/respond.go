package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "bloodlink/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to its HTTP status and JSON body.
// Unclassified errors surface as 500 without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code), Message: dErrors.MessageOf(err)}
	if code == dErrors.CodeInternal {
		body.Message = ""
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), body)
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(dErrors.CodeValidation, "invalid request body", err)
	}
	return nil
}
