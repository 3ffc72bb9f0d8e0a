package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/auth"
	"github.com/jrsteele09/go-pkce-gateway/internal/config"
	"github.com/jrsteele09/go-pkce-gateway/pkce"
	"github.com/jrsteele09/go-pkce-gateway/records"
	"github.com/jrsteele09/go-pkce-gateway/server/cookiestore"
	"github.com/jrsteele09/go-pkce-gateway/server/flowstate"
	"github.com/jrsteele09/go-pkce-gateway/sessions"
	"github.com/rs/zerolog/log"
)

const (
	generatedSecretLength = 32
	flowSweepInterval     = time.Minute
)

// InitialiseComponents builds the cookie store, flow repo, session guard,
// flow controller and records client from cfg. Endpoint discovery, when
// configured, happens here; any failure is fatal for startup.
func InitialiseComponents(ctx context.Context, cfg config.Config) (Components, error) {
	httpClient := &http.Client{Timeout: cfg.GetHTTPTimeout()}

	store, err := newCookieStore(cfg)
	if err != nil {
		return Components{}, fmt.Errorf("[Server InitialiseComponents] %w", err)
	}

	var flows flowstate.Repo
	var memory *flowstate.InMemoryRepo
	switch cfg.GetFlowStore() {
	case config.FlowStoreMemory:
		memory = flowstate.NewInMemoryRepo(store, cfg.GetPendingFlowTTL())
		flows = memory
	default:
		flows = flowstate.NewCookieRepo(store, cfg.GetPendingFlowTTL())
	}
	guard := sessions.NewGuard(store, cfg.GetAccessTokenTTL())

	endpoint, err := auth.ResolveEndpoint(ctx, cfg.GetAuthorizationEndpoint(), cfg.GetTokenEndpoint(), cfg.GetIssuer(), httpClient)
	if err != nil {
		return Components{}, fmt.Errorf("[Server InitialiseComponents] %w", err)
	}

	controller, err := auth.NewFlowController(auth.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		Endpoint:     endpoint,
		Scopes:       cfg.GetScopes(),
		HTTPClient:   httpClient,
	}, flows, guard)
	if err != nil {
		return Components{}, fmt.Errorf("[Server InitialiseComponents] %w", err)
	}

	recordsClient, err := records.NewClient(cfg.GetKintoneBaseURL(), cfg.GetKintoneAppID(), httpClient)
	if err != nil {
		return Components{}, fmt.Errorf("[Server InitialiseComponents] %w", err)
	}

	if memory != nil {
		go memory.Run(ctx, flowSweepInterval)
	}

	log.Info().
		Str("authorization_endpoint", endpoint.AuthURL).
		Str("token_endpoint", endpoint.TokenURL).
		Str("flow_store", cfg.GetFlowStore()).
		Str("records_url", recordsClient.RecordsURL()).
		Msg("Components initialised")

	return Components{Flows: controller, Sessions: guard, Records: recordsClient}, nil
}

// NewFromConfig initialises the components and builds the server.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Server, error) {
	components, err := InitialiseComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, components)
}

func newCookieStore(cfg config.Config) (*cookiestore.Store, error) {
	secret := []byte(cfg.GetCookieSecret())
	if len(secret) == 0 {
		generated, err := pkce.RandomBytes(generatedSecretLength)
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn().Msg("COOKIE_SECRET not set; using a random key, sessions will not survive a restart")
	}
	return cookiestore.New(secret)
}
