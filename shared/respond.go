package shared

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the machine-readable error envelope used by every endpoint.
type ErrorResponse struct {
	Detail     string `json:"detail"`
	ErrorCode  string `json:"error_code"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
}

// Error codes surfaced in the envelope.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInactiveUser  = "INACTIVE_USER"
	CodeNotFound      = "NOT_FOUND"
	CodeNoTasks       = "NO_TASKS"
	CodeConflict      = "CONFLICT"
	CodeRateLimited   = "RATE_LIMITED"
	CodeCalendarError = "CALENDAR_ERROR"
	CodeChatError     = "CHAT_ERROR"
	CodeAudioError    = "TRANSCRIBE_ERROR"
	CodeInternal      = "INTERNAL_SERVER_ERROR"
)

func SendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func SendError(w http.ResponseWriter, detail, code string, status int) {
	SendJSON(w, status, ErrorResponse{Detail: detail, ErrorCode: code, StatusCode: status})
}

// SendErrorData attaches diagnostic data to the envelope.
func SendErrorData(w http.ResponseWriter, detail, code string, status int, data any) {
	SendJSON(w, status, ErrorResponse{Detail: detail, ErrorCode: code, StatusCode: status, Data: data})
}
