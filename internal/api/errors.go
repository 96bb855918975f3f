package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"rpgpt/internal/service"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{
		Error: err.Error(),
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		resp.Error = svcErr.Message
		resp.Code = string(svcErr.Code)
		resp.Details = svcErr.Details
	} else {
		resp.Code = "INTERNAL_ERROR"
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteServiceError writes err with a status derived from its code
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, err, MapErrorToStatus(service.CodeOf(err)))
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code service.ErrorCode) int {
	switch code {
	case service.InvalidPersistedFile:
		return http.StatusBadRequest // 400
	case service.AnswerTooLong:
		return http.StatusBadRequest // 400
	case service.MalformedSectorExpr:
		return http.StatusBadRequest // 400
	case service.LookupMiss:
		return http.StatusBadRequest // 400
	case service.SessionNotFound:
		return http.StatusNotFound // 404
	case service.QuestionNotFound:
		return http.StatusNotFound // 404
	case service.SnapshotNotFound:
		return http.StatusNotFound // 404
	case service.SchemaViolation:
		return http.StatusUnprocessableEntity // 422
	case service.AliasCycle:
		return http.StatusUnprocessableEntity // 422
	case service.SuggesterUnavailable:
		return http.StatusServiceUnavailable // 503
	case service.StoreUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, ErrorResponse{Error: message, Code: "BAD_REQUEST"}, http.StatusBadRequest)
}
