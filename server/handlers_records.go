package server

import (
	"net/http"

	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/rs/zerolog"
)

// GetRecordsHandler proxies the kintone records of the configured app using
// the browser's access token. The upstream JSON is returned unchanged.
func (s *Server) GetRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.guard.BearerToken(r)
		if !ok {
			writeError(w, r, errors.ErrNotAuthenticated)
			return
		}

		data, err := s.records.FetchRecords(r.Context(), token.Value)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Fetching kintone records failed")
			writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
