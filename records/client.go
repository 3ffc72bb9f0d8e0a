package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	// DefaultErrorMessage is returned when kintone rejects a request without
	// saying why.
	DefaultErrorMessage = "Failed to fetch records from Kintone"

	recordsPath     = "/k/v1/records.json"
	maxResponseSize = 10 << 20
)

// Client fetches records from a single kintone app on behalf of the signed
// in browser.
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

// NewClient builds a records client for baseURL (https://<subdomain>) and the
// given app. httpClient supplies the transport and timeout; nil uses a client
// with a 10 second timeout.
func NewClient(baseURL, appID string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" || appID == "" {
		return nil, fmt.Errorf("%w: records client needs a base URL and an app id", errors.ErrMisconfigured)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: records base URL: %s", errors.ErrMisconfigured, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		httpClient: httpClient,
	}, nil
}

// RecordsURL is the endpoint queried by FetchRecords.
func (c *Client) RecordsURL() string {
	q := url.Values{}
	q.Set("app", c.appID)
	return c.baseURL + recordsPath + "?" + q.Encode()
}

// FetchRecords returns kintone's JSON response unchanged. Any failure is
// reported as an *errors.UpstreamError.
func (c *Client) FetchRecords(ctx context.Context, accessToken string) (json.RawMessage, error) {
	if accessToken == "" {
		return nil, errors.ErrNotAuthenticated
	}
	logger := zerolog.Ctx(ctx)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RecordsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("[records FetchRecords] %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Err(err).Msg("Records request failed")
		return nil, &errors.UpstreamError{Message: DefaultErrorMessage}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Err(err).Int("status", resp.StatusCode).Msg("Reading records response failed")
		return nil, &errors.UpstreamError{StatusCode: resp.StatusCode, Message: DefaultErrorMessage}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().Int("status", resp.StatusCode).Msg("Kintone rejected records request")
		return nil, &errors.UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	if !json.Valid(body) {
		logger.Warn().Int("status", resp.StatusCode).Msg("Kintone returned invalid JSON")
		return nil, &errors.UpstreamError{StatusCode: resp.StatusCode, Message: DefaultErrorMessage}
	}
	return json.RawMessage(body), nil
}

func upstreamMessage(body []byte) string {
	var errorData struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errorData); err != nil || errorData.Message == "" {
		return DefaultErrorMessage
	}
	return errorData.Message
}
