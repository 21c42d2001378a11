package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/services"
	"github.com/desertthunder/genrestats/internal/shared"
)

// DefaultPageSize is the largest page the search endpoint returns.
const DefaultPageSize = 50

// Search response types. Pointer fields distinguish a missing or null value from a zero value.
type searchResponse struct {
	Tracks *searchPage `json:"tracks"`
}

// Items stay raw so each one decodes on its own and errors can name its index.
type searchPage struct {
	Items []json.RawMessage `json:"items"`
	Next  *string           `json:"next"`
}

type searchTrack struct {
	ID         *string        `json:"id"`
	Name       *string        `json:"name"`
	Popularity *int           `json:"popularity"`
	DurationMS *int           `json:"duration_ms"`
	Artists    []searchArtist `json:"artists"`
	Album      *searchAlbum   `json:"album"`
}

type searchArtist struct {
	Name *string `json:"name"`
}

type searchAlbum struct {
	Name        *string `json:"name"`
	TotalTracks *int    `json:"total_tracks"`
}

// Collector runs one search per category and flattens the results into [models.TrackRecord] rows.
type Collector struct {
	service  services.Service
	pageSize int
	logger   *log.Logger
}

// NewCollector creates a Collector. A non-positive pageSize uses [DefaultPageSize].
func NewCollector(svc services.Service, pageSize int, logger *log.Logger) *Collector {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Collector{service: svc, pageSize: pageSize, logger: logger}
}

// Collect fetches up to limit tracks for each category, in order.
//
// Every record's Genre is the category that produced it. Any fetch or shape failure aborts the
// whole collection with a [*shared.StageError] naming the category.
func (c *Collector) Collect(ctx context.Context, token models.AccessToken, limit int, categories []string) ([]models.TrackRecord, error) {
	return c.collect(ctx, token, models.NewCategoryQueries(categories, limit), nil)
}

func (c *Collector) collect(ctx context.Context, token models.AccessToken, queries []models.CategoryQuery, progress chan<- ProgressUpdate) ([]models.TrackRecord, error) {
	records := make([]models.TrackRecord, 0)
	total := len(queries)

	for i, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, &shared.StageError{Stage: Collect.String(), Category: q.Category, Err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)}
		}

		sendProgress(progress, collectUpdate(i+1, total, q.Category))

		rows, err := c.collectCategory(ctx, token, q)
		if err != nil {
			return nil, &shared.StageError{Stage: Collect.String(), Category: q.Category, Err: err}
		}

		c.logger.Debug("collected category", "category", q.Category, "tracks", len(rows))
		sendProgress(progress, collectedUpdate(i+1, total, q.Category, len(rows)))
		records = append(records, rows...)
	}

	return records, nil
}

// collectCategory requests pages until the limit is reached, a page comes back short, or there is no next page.
func (c *Collector) collectCategory(ctx context.Context, token models.AccessToken, q models.CategoryQuery) ([]models.TrackRecord, error) {
	records := make([]models.TrackRecord, 0, min(q.Limit, c.pageSize))

	for offset := 0; len(records) < q.Limit; {
		want := min(c.pageSize, q.Limit-len(records))
		url := c.service.SearchURL(q.Category, want, offset)

		body, err := c.service.Fetch(ctx, url, token)
		if err != nil {
			return nil, err
		}

		page, err := decodePage(body, url, q.Category)
		if err != nil {
			return nil, err
		}

		rows, err := flattenPage(page, q.Category)
		if err != nil {
			return nil, err
		}

		if len(rows) > want {
			rows = rows[:want]
		}
		records = append(records, rows...)

		if len(rows) < want || page.Next == nil {
			break
		}
		offset += len(rows)
	}

	return records, nil
}

func decodePage(body []byte, url, category string) (*searchPage, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if path, ok := typeErrorPath(err, ""); ok {
			return nil, &shared.ShapeError{Category: category, Path: path, Err: err}
		}
		return nil, &shared.DecodeError{URL: url, Err: err}
	}

	if resp.Tracks == nil {
		return nil, &shared.ShapeError{Category: category, Path: "tracks"}
	}
	if resp.Tracks.Items == nil {
		return nil, &shared.ShapeError{Category: category, Path: "tracks.items"}
	}
	return resp.Tracks, nil
}

func flattenPage(page *searchPage, category string) ([]models.TrackRecord, error) {
	rows := make([]models.TrackRecord, 0, len(page.Items))
	for i, raw := range page.Items {
		prefix := fmt.Sprintf("tracks.items[%d]", i)

		var item searchTrack
		if err := json.Unmarshal(raw, &item); err != nil {
			path, _ := typeErrorPath(err, prefix)
			if path == "" {
				path = prefix
			}
			return nil, &shared.ShapeError{Category: category, Path: path, Err: err}
		}

		rec, missing := flattenTrack(item, category)
		if missing != "" {
			return nil, &shared.ShapeError{Category: category, Path: prefix + "." + missing}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// typeErrorPath reports the field path of a JSON type mismatch, joined onto prefix.
func typeErrorPath(err error, prefix string) (string, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return "", false
	}
	switch {
	case typeErr.Field == "" && prefix == "":
		return "$", true
	case typeErr.Field == "":
		return prefix, true
	case prefix == "":
		return typeErr.Field, true
	}
	return prefix + "." + typeErr.Field, true
}

// flattenTrack returns the record and, when a required field is absent, its path relative to the item.
func flattenTrack(t searchTrack, category string) (models.TrackRecord, string) {
	switch {
	case t.ID == nil:
		return models.TrackRecord{}, "id"
	case t.Name == nil:
		return models.TrackRecord{}, "name"
	case t.Popularity == nil:
		return models.TrackRecord{}, "popularity"
	case t.DurationMS == nil:
		return models.TrackRecord{}, "duration_ms"
	case len(t.Artists) == 0:
		return models.TrackRecord{}, "artists[0]"
	case t.Artists[0].Name == nil:
		return models.TrackRecord{}, "artists[0].name"
	case t.Album == nil:
		return models.TrackRecord{}, "album"
	case t.Album.Name == nil:
		return models.TrackRecord{}, "album.name"
	case t.Album.TotalTracks == nil:
		return models.TrackRecord{}, "album.total_tracks"
	}

	return models.TrackRecord{
		TrackID:            *t.ID,
		TrackName:          *t.Name,
		Genre:              category,
		ArtistName:         *t.Artists[0].Name,
		Popularity:         *t.Popularity,
		DurationMS:         *t.DurationMS,
		AlbumName:          *t.Album.Name,
		TotalTracksInAlbum: *t.Album.TotalTracks,
	}, ""
}
