package http

import (
	"encoding/json"
	"net/http"
)

// All endpoints share one envelope so clients branch on "status" alone.
// Successes nest the payload under "data"; failures carry a machine-readable
// code from the contract error taxonomy next to a human-readable message.

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorBody{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
