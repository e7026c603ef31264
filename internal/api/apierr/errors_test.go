package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/redblue/internal/model"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{model.ErrInvalidName, http.StatusBadRequest},
		{model.ErrMissingCode, http.StatusBadRequest},
		{model.ErrUnauthorized, http.StatusUnauthorized},
		{model.ErrInvalidCredentials, http.StatusUnauthorized},
		{model.ErrForbidden, http.StatusForbidden},
		{model.ErrNotOwner, http.StatusForbidden},
		{model.ErrGameNotFound, http.StatusNotFound},
		{model.ErrGameFull, http.StatusConflict},
		{model.ErrDuplicateChoice, http.StatusConflict},
		{model.ErrSessionNotActive, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", model.ErrGameNotFound), http.StatusNotFound},
		{NewRateLimitedError(), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestWriteErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("save: %w", model.ErrSessionNotActive))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "game is not active", body.Detail)
	assert.Equal(t, "GAME_NOT_ACTIVE", body.Code)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("redis: connection refused"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, CodeInternalError, body.Code)
	assert.NotContains(t, body.Detail, "redis")
}

func TestInvalidRequestIsValidation(t *testing.T) {
	err := NewInvalidRequestError("invalid JSON body")
	assert.Equal(t, model.KindValidation, model.KindOf(err))
	assert.Equal(t, http.StatusBadRequest, Status(err))
}
