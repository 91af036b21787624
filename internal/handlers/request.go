package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pozt-backend/internal/apperr"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.Validation("invalid_body", "Invalid request body")

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody.Wrap(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}
