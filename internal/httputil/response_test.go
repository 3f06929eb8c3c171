package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastfood-labs/order_service/internal/errors"
)

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestWriteErrorServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.NotFound("Order", "ID", 42))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Order with ID 42 not found", decodeDetail(t, rec))
}

func TestWriteErrorPlainErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, stderrors.New("duplicate entry"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "duplicate entry", decodeDetail(t, rec))
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	assert.True(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, "x", v.Name)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.False(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "invalid JSON")
}
