package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-pkce-gateway/auth"
	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
)

const (
	actionInitiate = "initiate"
	actionToken    = "token"

	maxAuthBodySize = 64 << 10
)

// authActionRequest is the POST /api/auth body. Action selects the phase;
// a body carrying a code without an action is treated as a token exchange.
type authActionRequest struct {
	Action       string `json:"action"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
	Code         string `json:"code,omitempty"`
	State        string `json:"state,omitempty"`
}

type initiateResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	State            string `json:"state"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type statusResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// AuthActionHandler dispatches POST /api/auth to the initiate or token
// exchange phase.
func (s *Server) AuthActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body authActionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodySize)).Decode(&body); err != nil {
			writeError(w, r, fmt.Errorf("%w: malformed JSON body", errors.ErrInvalidRequest))
			return
		}

		switch {
		case body.Action == actionInitiate:
			s.initiate(w, r, body)
		case body.Action == actionToken, body.Action == "" && body.Code != "":
			s.exchange(w, r, body)
		default:
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Invalid action"})
		}
	}
}

func (s *Server) initiate(w http.ResponseWriter, r *http.Request, body authActionRequest) {
	result, err := s.flows.Initiate(w, r, auth.InitiateRequest{
		RedirectURI:  body.RedirectURI,
		CodeVerifier: body.CodeVerifier,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, initiateResponse{
		AuthorizationURL: result.AuthorizationURL,
		State:            result.State,
	})
}

func (s *Server) exchange(w http.ResponseWriter, r *http.Request, body authActionRequest) {
	err := s.flows.Exchange(r.Context(), w, r, auth.ExchangeRequest{
		Code:         body.Code,
		RedirectURI:  body.RedirectURI,
		State:        body.State,
		CodeVerifier: body.CodeVerifier,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, successResponse{Success: true})
}

// AuthStatusHandler reports whether the browser holds an access token.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, statusResponse{IsAuthenticated: s.guard.IsAuthenticated(r)})
	}
}

// LogoutHandler deletes the access token cookie. It succeeds whether or not
// the browser was signed in.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.guard.Logout(w)
		writeJSON(w, r, http.StatusOK, successResponse{Success: true, Message: "Logout successful"})
	}
}
