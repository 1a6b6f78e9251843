// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/rs/cors"
)

// NewHandler returns the resource server's http.Handler. Middleware runs in
// this order: CORS, panic recovery, bearer token verification and finally
// the routes.
//
// Supported options:
//
//	WithLogger
//	WithAllowedOrigins
//	WithIdGenerator
func NewHandler(v TokenVerifier, opt ...Option) (http.Handler, error) {
	const op = "api.NewHandler"
	opts := getHandlerOpts(opt...)
	requireBearer, err := RequireBearer(v, opts.withLogger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api", UserHandler(opts.withIdGenerator, opts.withLogger)).Methods(http.MethodGet)
	r.HandleFunc("/api", allowedMethods(http.MethodGet, http.MethodOptions)).Methods(http.MethodOptions)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "")
	})

	c := cors.New(cors.Options{
		AllowedOrigins: opts.withAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		Logger:         corsLogger{opts.withLogger.Named("cors")},
	})
	return c.Handler(Recover(opts.withLogger)(requireBearer(r))), nil
}

// UserHandler responds with the subject of the request's verified token.
func UserHandler(genId func() (string, error), logger hclog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, AuthenticationError)
			return
		}
		reqId, err := genId()
		if err != nil {
			logger.Error("unable to generate response id", "error", err)
			writeError(w, http.StatusInternalServerError, "")
			return
		}
		sub, _ := claims["sub"].(string)
		logger.Debug("user request", "id", reqId, "sub", sub)
		writeJSON(w, http.StatusOK, UserResponse{
			Status: http.StatusOK,
			Id:     reqId,
			User:   sub,
		})
	}
}

// allowedMethods answers a non-preflight OPTIONS request with the route's
// methods.
func allowedMethods(methods ...string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusNoContent)
	}
}

// corsLogger adapts an hclog.Logger to the cors.Logger interface.
type corsLogger struct {
	l hclog.Logger
}

func (c corsLogger) Printf(format string, v ...interface{}) {
	c.l.Trace(fmt.Sprintf(format, v...))
}
