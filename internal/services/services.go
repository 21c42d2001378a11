// package services defines interface Service for interacting with the music catalog API
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/genrestats/internal/models"
)

// Authenticator exchanges client credentials for a bearer token.
type Authenticator interface {
	// Authenticate performs the client-credentials grant.
	// Returns a [*shared.AuthError] if the exchange fails.
	Authenticate(ctx context.Context, cred models.Credential) (models.AccessToken, error)
}

// Fetcher issues authenticated GET requests and returns the raw JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, url string, token models.AccessToken) (json.RawMessage, error)
}

// Service is a catalog provider the pipeline can authenticate against and search.
type Service interface {
	Authenticator
	Fetcher

	// SearchURL builds the track search URL for a category page.
	SearchURL(category string, limit, offset int) string

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

var _ Service = (*SpotifyService)(nil)
