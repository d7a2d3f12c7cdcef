package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is the uniform error/status body returned at the API boundary.
type Response struct {
	StatusCode int    `json:"statusCode"`
	StatusName string `json:"statusName"`
	Message    string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteStatus writes the uniform status body. The message is upper-cased to
// match the fixed user-facing copy the frontend expects.
func WriteStatus(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		StatusCode: status,
		StatusName: strings.ToUpper(http.StatusText(status)),
		Message:    strings.ToUpper(message),
	})
}
