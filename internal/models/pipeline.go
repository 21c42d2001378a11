package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultGrantType is the OAuth2 grant used by [NewCredential].
	DefaultGrantType = "client_credentials"
	// BearerScheme prefixes every [AccessToken].
	BearerScheme = "Bearer"
)

// Credential holds the client credentials exchanged for an [AccessToken].
type Credential struct {
	ClientID     string
	ClientSecret string
	GrantType    string
}

// NewCredential returns a Credential using the client credentials grant.
func NewCredential(clientID, clientSecret string) Credential {
	return Credential{ClientID: clientID, ClientSecret: clientSecret, GrantType: DefaultGrantType}
}

// String redacts the secret so credentials can be passed to loggers safely.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{ClientID: %s, GrantType: %s}", c.ClientID, c.GrantType)
}

// AccessToken is a short-lived bearer token valid for a single run.
type AccessToken struct {
	Value  string
	Scheme string
}

// NewAccessToken wraps a raw token value with the Bearer scheme.
func NewAccessToken(value string) AccessToken {
	return AccessToken{Value: value, Scheme: BearerScheme}
}

// String renders the token as an Authorization header value, e.g. "Bearer BQ...".
func (t AccessToken) String() string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = BearerScheme
	}
	return scheme + " " + t.Value
}

// IsZero reports whether the token carries no value.
func (t AccessToken) IsZero() bool {
	return strings.TrimSpace(t.Value) == ""
}

// CategoryQuery is one genre search and the number of tracks to request for it.
type CategoryQuery struct {
	Category string
	Limit    int
}

// Validate checks the category is named and the limit is positive.
func (q CategoryQuery) Validate() error {
	if strings.TrimSpace(q.Category) == "" {
		return errors.New("category is required")
	}
	if q.Limit <= 0 {
		return fmt.Errorf("limit for category %q must be positive, got %d", q.Category, q.Limit)
	}
	return nil
}

// NewCategoryQueries builds one query per category sharing the same limit.
func NewCategoryQueries(categories []string, limit int) []CategoryQuery {
	queries := make([]CategoryQuery, 0, len(categories))
	for _, c := range categories {
		queries = append(queries, CategoryQuery{Category: c, Limit: limit})
	}
	return queries
}

// TrackRecord is a single track flattened from a search response.
//
// Genre is always the queried category, never a value read from the payload.
type TrackRecord struct {
	TrackID            string `json:"track_id"`
	TrackName          string `json:"track_name"`
	Genre              string `json:"genre"`
	ArtistName         string `json:"artist_name"`
	Popularity         int    `json:"popularity"`
	DurationMS         int    `json:"duration_ms"`
	AlbumName          string `json:"album_name"`
	TotalTracksInAlbum int    `json:"total_tracks_in_album"`
}

// CategorySummary holds the per-genre means written to the artifact.
type CategorySummary struct {
	Genre                 string  `json:"genre"`
	AvgPopularity         float64 `json:"avg_popularity"`
	AvgDurationMS         float64 `json:"-"`
	AvgDuration           string  `json:"avg_duration_ms"` // formatted "<M> min <S> sec"
	AvgTotalTracksInAlbum float64 `json:"avg_total_tracks_in_album"`
}

// UnexpectedRow identifies a summary row that failed an expectation.
type UnexpectedRow struct {
	Row   int    `json:"row"`
	Genre string `json:"genre"`
	Value string `json:"value"`
}

// ExpectationDetails carries diagnostics for an [ExpectationResult].
type ExpectationDetails struct {
	ElementCount    int             `json:"element_count"`
	UnexpectedCount int             `json:"unexpected_count"`
	Unexpected      []UnexpectedRow `json:"unexpected,omitempty"`
}

// ExpectationResult is the outcome of one data-quality check across all rows.
type ExpectationResult struct {
	Name    string             `json:"expectation"`
	Column  string             `json:"column"`
	Passed  bool               `json:"success"`
	Details ExpectationDetails `json:"result"`
}
