// Spotify Web API implementation of [Service]
//
// Token exchange follows https://developer.spotify.com/documentation/web-api/tutorials/client-credentials-flow
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultTimeout = 30 * time.Second
	sortPopularity = "popularity.desc"
)

// SpotifyOptions configures a [SpotifyService]. Zero values fall back to the public Spotify endpoints.
type SpotifyOptions struct {
	TokenURL string
	BaseURL  string
	Timeout  time.Duration
	// RequestsPerSecond throttles Fetch; zero or negative disables throttling.
	RequestsPerSecond float64
	// HTTPClient is used for both the token exchange and catalog requests.
	HTTPClient *http.Client
}

// SpotifyService implements [Service] with the client-credentials grant and raw search requests.
type SpotifyService struct {
	tokenURL   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service from opts.
func NewSpotifyService(opts SpotifyOptions) *SpotifyService {
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &SpotifyService{
		tokenURL:   opts.TokenURL,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate exchanges the client credentials for a bearer token.
//
// Credentials and grant type are sent in the form body. A single attempt is made; every failure,
// including a response without an access token, is returned as [*shared.AuthError].
func (s *SpotifyService) Authenticate(ctx context.Context, cred models.Credential) (models.AccessToken, error) {
	if cred.ClientID == "" || cred.ClientSecret == "" {
		return models.AccessToken{}, &shared.AuthError{Err: shared.ErrMissingCredentials}
	}

	config := &clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     s.tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if cred.GrantType != "" && cred.GrantType != models.DefaultGrantType {
		config.EndpointParams = url.Values{"grant_type": {cred.GrantType}}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := config.Token(ctx)
	if err != nil {
		return models.AccessToken{}, &shared.AuthError{Err: err}
	}

	access := models.NewAccessToken(token.AccessToken)
	if access.IsZero() {
		return models.AccessToken{}, &shared.AuthError{Err: errors.New("token response has an empty access_token")}
	}
	return access, nil
}

// Fetch performs one authenticated GET against rawURL and returns the JSON body.
//
// It waits on the service's rate limiter first. The payload shape is not inspected.
func (s *SpotifyService) Fetch(ctx context.Context, rawURL string, token models.AccessToken) (json.RawMessage, error) {
	if token.IsZero() {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrAPIRequest, err)
	}
	req.Header.Set("Authorization", token.String())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &shared.HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", shared.ErrAPIRequest, err)
	}

	if !json.Valid(body) {
		return nil, &shared.DecodeError{URL: rawURL}
	}
	return json.RawMessage(body), nil
}

// SearchURL builds the track search URL for a genre category.
//
// offset is only included when positive, so the first page matches a plain search.
func (s *SpotifyService) SearchURL(category string, limit, offset int) string {
	q := url.Values{}
	q.Set("q", "genre:"+category)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", sortPopularity)
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return s.baseURL + "/search?" + q.Encode()
}
