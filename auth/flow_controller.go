package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/jrsteele09/go-pkce-gateway/pkce"
	"github.com/jrsteele09/go-pkce-gateway/server/flowstate"
	"github.com/jrsteele09/go-pkce-gateway/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultHTTPTimeout = 10 * time.Second

// Config is the client registration at the authorization server. It is
// built once at startup and injected into the FlowController.
type Config struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	// HTTPClient is used for the token request. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client
}

func (c Config) validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.Endpoint.AuthURL == "" {
		missing = append(missing, "authorization endpoint")
	}
	if c.Endpoint.TokenURL == "" {
		missing = append(missing, "token endpoint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperrors.ErrMisconfigured, strings.Join(missing, ", "))
	}
	if err := ValidateScopes(c.Scopes); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrMisconfigured, err)
	}
	return nil
}

// FlowController drives the two phases of the authorization code + PKCE
// flow. It holds no per-request state; everything about a pending flow lives
// in the flow repo.
type FlowController struct {
	oauth      oauth2.Config
	httpClient *http.Client
	flows      flowstate.Repo
	sessions   *sessions.Guard
	nowTime    func() time.Time
}

// FlowControllerOption defines a function type to modify the FlowController instance.
type FlowControllerOption func(*FlowController)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowControllerOption {
	return func(fc *FlowController) {
		fc.nowTime = nowFunc
	}
}

// NewFlowController validates cfg and wires the controller. A configuration
// error is fatal at startup.
func NewFlowController(cfg Config, flows flowstate.Repo, guard *sessions.Guard, options ...FlowControllerOption) (*FlowController, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("[NewFlowController] %w", err)
	}
	if flows == nil {
		return nil, errors.New("[NewFlowController] flow repo is required")
	}
	if guard == nil {
		return nil, errors.New("[NewFlowController] session guard is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	endpoint := cfg.Endpoint
	// client_id and client_secret travel in the form body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	fc := &FlowController{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       append([]string(nil), cfg.Scopes...),
		},
		httpClient: httpClient,
		flows:      flows,
		sessions:   guard,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(fc)
	}
	return fc, nil
}

// Initiate creates a fresh state and verifier, stores them as the browser's
// pending flow and returns the authorization URL to redirect to. Any earlier
// pending flow for the browser is replaced.
func (fc *FlowController) Initiate(w http.ResponseWriter, r *http.Request, req InitiateRequest) (InitiateResult, error) {
	if err := req.Validate(); err != nil {
		return InitiateResult{}, err
	}

	verifier := req.CodeVerifier
	serverOwned := verifier == ""
	if serverOwned {
		v, err := pkce.GenerateCodeVerifier()
		if err != nil {
			return InitiateResult{}, fmt.Errorf("[FlowController Initiate] %w", err)
		}
		verifier = v
	}

	state, err := pkce.GenerateState()
	if err != nil {
		return InitiateResult{}, fmt.Errorf("[FlowController Initiate] %w", err)
	}

	flow := flowstate.PendingFlow{State: state, CreatedAt: fc.nowTime()}
	if serverOwned {
		flow.CodeVerifier = verifier
	}
	fc.flows.Save(w, r, flow)

	cfg := fc.oauth
	cfg.RedirectURL = req.RedirectURI
	authURL := cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.GenerateCodeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", string(CodeMethodTypeS256)),
	)

	zerolog.Ctx(r.Context()).Debug().Bool("server_owned_verifier", serverOwned).Msg("Authorization flow initiated")

	return InitiateResult{AuthorizationURL: authURL, State: state}, nil
}

// Exchange consumes the pending flow, checks the callback state against it
// and trades the authorization code for an access token, which is handed to
// the session guard. The pending flow is cleared on every attempt, so a
// failed exchange has to start again from Initiate.
func (fc *FlowController) Exchange(ctx context.Context, w http.ResponseWriter, r *http.Request, req ExchangeRequest) error {
	logger := zerolog.Ctx(ctx)

	flow, found := fc.flows.Take(w, r)
	if !found || !statesMatch(flow.State, req.State) {
		logger.Warn().Bool("pending_flow", found).Msg("Rejected callback with invalid state")
		return apperrors.ErrInvalidState
	}

	if err := req.Validate(); err != nil {
		return err
	}

	verifier := flow.CodeVerifier
	if verifier == "" {
		verifier = req.CodeVerifier
	}
	if verifier == "" {
		return fmt.Errorf("%w: code_verifier is required", apperrors.ErrInvalidRequest)
	}

	cfg := fc.oauth
	cfg.RedirectURL = req.RedirectURI
	ctx = context.WithValue(ctx, oauth2.HTTPClient, fc.httpClient)

	token, err := cfg.Exchange(ctx, req.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		exchangeErr := toTokenExchangeError(err)
		logger.Error().Int("status", exchangeErr.StatusCode).Msg("Token exchange failed")
		return exchangeErr
	}

	fc.sessions.Persist(w, sessions.AccessToken{Value: token.AccessToken, IssuedAt: fc.nowTime()})
	logger.Info().Msg("Token exchange succeeded")
	return nil
}

// statesMatch compares byte-for-byte in constant time. An empty stored state
// never matches.
func statesMatch(stored, received string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}

func toTokenExchangeError(err error) *apperrors.TokenExchangeError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		exchangeErr := &apperrors.TokenExchangeError{Body: string(retrieveErr.Body)}
		if retrieveErr.Response != nil {
			exchangeErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return exchangeErr
	}
	return &apperrors.TokenExchangeError{Body: err.Error()}
}
