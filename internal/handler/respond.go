package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/todo/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps err to its status code. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, reqErr.status, errorResponse{Error: reqErr.msg})
		return
	}

	status := apperr.Status(err)
	resp := errorResponse{Error: errorMessage(err, status)}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	switch status {
	case http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, resp)
}

func errorMessage(err error, status int) string {
	switch status {
	case http.StatusUnauthorized:
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			return apperr.ErrInvalidCredentials.Error()
		}
		return apperr.ErrUnauthenticated.Error()
	case http.StatusForbidden:
		return apperr.ErrForbidden.Error()
	case http.StatusNotFound:
		return apperr.ErrNotFound.Error()
	case http.StatusConflict:
		return "username or email already registered"
	case http.StatusUnprocessableEntity:
		return apperr.ErrValidation.Error()
	default:
		return "internal error"
	}
}

// requestError is a malformed request rejected before reaching a service.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// decodeJSON reads a single JSON object into dst. Syntax errors and unknown
// fields are request errors, wrong value types are field validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		if dec.More() {
			return &requestError{http.StatusBadRequest, "request body must contain a single JSON object"}
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		v := &apperr.ValidationError{}
		v.Add(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type))
		return v
	case errors.As(err, &maxErr):
		return &requestError{http.StatusRequestEntityTooLarge, "request body too large"}
	case errors.Is(err, io.EOF):
		return &requestError{http.StatusBadRequest, "request body is empty"}
	default:
		return &requestError{http.StatusBadRequest, "invalid JSON"}
	}
}

// parseIDParam reads the {id} path value. A non-numeric or non-positive id
// is a validation error.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		v := &apperr.ValidationError{}
		v.Add("id", "must be a positive integer")
		return 0, v
	}
	return id, nil
}
