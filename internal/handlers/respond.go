// Package handlers implements the HTTP API over the billing store and the
// audit dispatcher.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/server"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps domain error kinds onto HTTP statuses and records the
// error in the request log. Non-domain errors are reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)

	status := http.StatusInternalServerError
	kind := "internal"
	var derr *domain.Error
	if e, ok := domain.AsError(err); ok {
		derr = e
		status = derr.HTTPStatusCode()
		kind = string(derr.Kind)
	}

	msg := http.StatusText(status)
	if derr != nil {
		msg = derr.Message
	}
	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: msg}})
}

// pathID parses the named chi URL parameter as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body").WithCause(err)
	}
	return nil
}
