// Package httputil provides JSON request and response helpers shared by the
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/sirupsen/logrus"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteError maps err to its status and client-safe message. Internal causes
// are logged and never written to the response.
func WriteError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	kind := errs.KindOf(err)
	if kind == errs.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": RequestID(r.Context()),
		}).Error("Request failed")
	}
	WriteErrorMessage(w, errs.HTTPStatus(kind), errs.PublicMessage(err))
}

// DecodeJSON reads a single JSON object from the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errs.Validation("Invalid request body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("Invalid request body")
		}
		return &errs.Error{Kind: errs.KindValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}
