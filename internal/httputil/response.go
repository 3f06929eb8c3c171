// Package httputil holds the JSON request and response helpers shared by the
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/fastfood-labs/order_service/internal/errors"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorBody is the wire shape of every failure response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteDetail writes {"detail": message}.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Detail: message})
}

// WriteError maps err to its HTTP status. Service errors keep their message;
// anything else is a 500 carrying the raw error text.
func WriteError(w http.ResponseWriter, err error) {
	if svcErr := errors.GetServiceError(err); svcErr != nil {
		WriteDetail(w, svcErr.HTTPStatus, svcErr.Message)
		return
	}
	WriteDetail(w, http.StatusInternalServerError, err.Error())
}

// Unprocessable writes a 422 validation failure.
func Unprocessable(w http.ResponseWriter, message string) {
	WriteError(w, errors.Validation(message))
}

// DecodeJSON decodes the request body into v. On failure it writes a 422 and
// returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		Unprocessable(w, "request body is required")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		Unprocessable(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
