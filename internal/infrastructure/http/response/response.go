package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errorCodes = map[int]string{
	http.StatusBadRequest:          "bad_request",
	http.StatusNotFound:            "not_found",
	http.StatusUnprocessableEntity: "upsert_failed",
	http.StatusInternalServerError: "internal_server_error",
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends err as an ErrorResponse
func Error(w http.ResponseWriter, status int, err error) {
	Message(w, status, err.Error())
}

// Message sends msg as an ErrorResponse. Upsert results only carry a message,
// so the handler reports them through here.
func Message(w http.ResponseWriter, status int, msg string) {
	code, ok := errorCodes[status]
	if !ok {
		code = "error"
	}
	JSON(w, status, ErrorResponse{Error: code, Message: msg})
}
