package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/jrsteele09/go-pkce-gateway/auth"
	"github.com/jrsteele09/go-pkce-gateway/internal/config"
	"github.com/jrsteele09/go-pkce-gateway/records"
	"github.com/jrsteele09/go-pkce-gateway/sessions"
	"github.com/rs/zerolog/log"
)

// Components are the collaborators the HTTP surface delegates to.
type Components struct {
	Flows    *auth.FlowController
	Sessions *sessions.Guard
	Records  *records.Client
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	flows   *auth.FlowController
	guard   *sessions.Guard
	records *records.Client
	cors    *cors.Cors
}

func New(config config.Config, components Components) (*Server, error) {
	if components.Flows == nil || components.Sessions == nil || components.Records == nil {
		return nil, errors.New("[Server New] flow controller, session guard and records client are required")
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		flows:   components.Flows,
		guard:   components.Sessions,
		records: components.Records,
	}
	s.env = config.GetEnv()
	// an empty origin list would make cors allow every origin
	if origins := config.GetAllowedOrigins(); len(origins) > 0 {
		s.cors = cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   config.GetAllowedMethods(),
			AllowedHeaders:   config.GetAllowedHeaders(),
			AllowCredentials: true,
			MaxAge:           86400,
		})
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			log.Info().Msg(formatRoute(parts[0], parts[1]))
		} else {
			log.Info().Msg(formatRoute("", parts[0]))
		}
	}
}

func formatRoute(method, path string) string {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	return fmt.Sprintf("[%-19s] %s", displayMethod, path)
}
