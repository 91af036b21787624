package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pozt-backend/internal/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorClassified(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperr.NotFound("user_not_found", "User not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "User not found", body.Error)
	assert.Equal(t, "User not found", body.Message)
	assert.Equal(t, "user_not_found", body.Code)
}

func TestErrorUnclassifiedHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "internal", body.Code)
}

func TestErrorStatusOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &apperr.Error{Kind: apperr.KindConflict, Code: "email_taken", Message: "Email already exists", Status: http.StatusBadRequest})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
