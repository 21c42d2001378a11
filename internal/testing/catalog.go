package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	TestClientID     = "test_client_id"
	TestClientSecret = "test_client_secret"
	TestToken        = "test_access_token"
)

// CatalogTrack is a track served by [CatalogServer].
type CatalogTrack struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	Popularity  int
	DurationMS  int
	TotalTracks int
}

// CatalogServer fakes the token endpoint and the track search endpoint.
//
// Tracks are served per genre in the given order and paged by limit/offset.
// Raw and Status override the response for a genre.
type CatalogServer struct {
	*httptest.Server

	Tracks map[string][]CatalogTrack
	Raw    map[string]string
	Status map[string]int

	mu            sync.Mutex
	searches      []url.Values
	tokenRequests []url.Values
}

// NewCatalogServer starts a [CatalogServer] closed at test cleanup.
func NewCatalogServer(t *testing.T, tracks map[string][]CatalogTrack) *CatalogServer {
	t.Helper()
	c := &CatalogServer{Tracks: tracks, Raw: map[string]string{}, Status: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", c.handleToken)
	mux.HandleFunc("/v1/search", c.handleSearch)

	c.Server = httptest.NewServer(mux)
	t.Cleanup(c.Close)
	return c
}

func (c *CatalogServer) TokenURL() string { return c.URL + "/api/token" }
func (c *CatalogServer) BaseURL() string  { return c.URL + "/v1" }

// Searches returns the query parameters of every search request received.
func (c *CatalogServer) Searches() []url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]url.Values(nil), c.searches...)
}

// TokenRequests returns the form bodies of every token request received.
func (c *CatalogServer) TokenRequests() []url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]url.Values(nil), c.tokenRequests...)
}

func (c *CatalogServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.tokenRequests = append(c.tokenRequests, r.PostForm)
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("client_id") != TestClientID || r.PostForm.Get("client_secret") != TestClientSecret {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"Invalid client"}`)
		return
	}

	fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, TestToken)
}

func (c *CatalogServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	c.mu.Lock()
	c.searches = append(c.searches, query)
	c.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+TestToken {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"status":401,"message":"Invalid access token"}}`)
		return
	}

	genre := strings.TrimPrefix(query.Get("q"), "genre:")
	if status, ok := c.Status[genre]; ok {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"status":%d,"message":"forced"}}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if raw, ok := c.Raw[genre]; ok {
		fmt.Fprint(w, raw)
		return
	}

	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	json.NewEncoder(w).Encode(c.page(r, genre, limit, offset))
}

func (c *CatalogServer) page(r *http.Request, genre string, limit, offset int) map[string]any {
	all := c.Tracks[genre]
	start := min(offset, len(all))
	end := min(start+limit, len(all))

	items := make([]map[string]any, 0, end-start)
	for _, tr := range all[start:end] {
		items = append(items, map[string]any{
			"id":          tr.ID,
			"name":        tr.Name,
			"popularity":  tr.Popularity,
			"duration_ms": tr.DurationMS,
			"artists":     []map[string]any{{"name": tr.Artist}},
			"album":       map[string]any{"name": tr.Album, "total_tracks": tr.TotalTracks},
		})
	}

	var next any
	if end < len(all) {
		q := r.URL.Query()
		q.Set("offset", strconv.Itoa(end))
		next = c.BaseURL() + "/search?" + q.Encode()
	}

	return map[string]any{
		"tracks": map[string]any{
			"items":  items,
			"limit":  limit,
			"offset": offset,
			"total":  len(all),
			"next":   next,
		},
	}
}
