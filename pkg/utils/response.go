package utils

import (
	"encoding/json"
	"net/http"

	"pozt-backend/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes err as an ErrorBody. Internal and dependency failures hide their cause.
func Error(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	status := ae.HTTPStatus()

	msg := ae.Message
	if ae.Kind == apperr.KindInternal {
		msg = "Internal server error"
	}
	JSON(w, status, ErrorBody{Error: msg, Message: msg, Code: ae.Code})
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
