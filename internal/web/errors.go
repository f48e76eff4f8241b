// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

// errorBody is the JSON shape of every error response. Context carries the
// client-facing code on 400 responses only.
type errorBody struct {
	Error   string            `json:"error"`
	Context map[string]string `json:"context,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // the status line is already sent
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest writes a 400 carrying code.
func writeBadRequest(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error:   http.StatusText(http.StatusBadRequest),
		Context: map[string]string{"error": code},
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: http.StatusText(http.StatusUnauthorized)})
}

// writeError maps err to a response. Internal errors are logged and hidden
// behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch auth.ErrorKind(err) {
	case auth.KindBadRequest:
		writeBadRequest(w, auth.PublicCode(err))
	case auth.KindUnauthorized:
		writeUnauthorized(w)
	default:
		errutil.LogErrorContext(r.Context(), logger, "request failed", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: http.StatusText(http.StatusInternalServerError),
		})
	}
}
