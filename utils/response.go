package utils

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope used by dashboard and informational endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteRaw writes an arbitrary JSON body. The public chat and payment endpoints have their
// own response shapes and do not use the APIResponse envelope.
func WriteRaw(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// GetStringValue returns the value of a nullable string pointer or empty string if nil.
func GetStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
