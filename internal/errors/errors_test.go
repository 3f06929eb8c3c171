package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Order", "ID", 42)

	assert.Equal(t, "Order with ID 42 not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "Order", err.Details["entity"])
	assert.ErrorIs(t, err, &ServiceError{Code: CodeNotFound})
}

func TestGetServiceErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", Forbidden(""))

	se := GetServiceError(wrapped)
	require.NotNil(t, se)
	assert.Equal(t, CodeForbidden, se.Code)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(wrapped))
}

func TestHTTPStatusDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
	assert.Nil(t, GetServiceError(stderrors.New("boom")))
	assert.NotErrorIs(t, stderrors.New("boom"), &ServiceError{Code: CodeNotFound})
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Validation("bad status"))

	assert.True(t, stderrors.Is(err, &ServiceError{Code: CodeValidation}))
	assert.False(t, stderrors.Is(err, &ServiceError{Code: CodeNotFound}))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Internal("store failure", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusUnprocessableEntity, Validation("x").HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, InvalidToken(nil).HTTPStatus)
	assert.Equal(t, "Not authenticated", Unauthorized("").Message)
}
