package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorResponse struct {
	Error string `json:"error"`
}

// HealthHandler reports liveness. It does not contact the authorization
// server or kintone.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// PreflightHandler answers OPTIONS requests that the CORS middleware did not
// treat as a preflight.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to encode response")
	}
}

// writeError converts err to the JSON error body and status the browser
// expects. Unexpected errors are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.StatusCode(err)
	if status == http.StatusInternalServerError && !errors.Is(err, errors.ErrTokenExchangeFailed) && !errors.Is(err, errors.ErrUpstreamResource) {
		zerolog.Ctx(r.Context()).Err(err).Msg("Unhandled error")
	}
	writeJSON(w, r, status, errorResponse{Error: errorMessage(err)})
}

func errorMessage(err error) string {
	var exchangeErr *errors.TokenExchangeError
	var upstreamErr *errors.UpstreamError
	switch {
	case errors.Is(err, errors.ErrInvalidState):
		return "Invalid state parameter"
	case errors.Is(err, errors.ErrInvalidRequest):
		return err.Error()
	case errors.Is(err, errors.ErrNotAuthenticated):
		return "Not authenticated"
	case errors.As(err, &exchangeErr):
		return exchangeErr.Error()
	case errors.As(err, &upstreamErr):
		return upstreamErr.Message
	default:
		return "Internal server error"
	}
}
