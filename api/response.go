// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"encoding/json"
	"net/http"
)

// AuthenticationError is the message of every 401 response.
const AuthenticationError = "Authentication Error"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// UserResponse is the body of a successful GET /api.
type UserResponse struct {
	Status int    `json:"status"`
	Id     string `json:"id"`
	User   string `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorResponse{Status: status, Error: msg})
}
