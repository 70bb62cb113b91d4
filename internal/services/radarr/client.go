package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

// Service defines the catalog operations the operation handlers depend on.
// Any non-success response is a hard failure of the Updating phase.
type Service interface {
	UpdateLocation(ctx context.Context, subjectID int64, newPath, newRootLabel string) error
	Rescan(ctx context.Context, subjectID int64) error
}

// HTTPDoer describes the HTTP client used by the Radarr service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Movie is the subset of a Radarr movie record shuttle reads and writes.
// Unknown fields round-trip through Raw so updates do not strip them.
type Movie struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Path           string `json:"path"`
	RootFolderPath string `json:"rootFolderPath"`
	HasFile        bool   `json:"hasFile"`
	MovieFile      struct {
		Path string `json:"path"`
	} `json:"movieFile"`

	raw map[string]json.RawMessage
}

// FilePath returns the movie's current media file location.
func (m Movie) FilePath() string {
	return m.MovieFile.Path
}

// Client talks to the Radarr v3 API.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// New constructs a Radarr client from configuration.
func New(cfg config.Radarr) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewWithDoer(cfg, &http.Client{Timeout: timeout})
}

// NewWithDoer constructs a Radarr client with an injected HTTP doer
// (primarily for tests).
func NewWithDoer(cfg config.Radarr, doer HTTPDoer) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d/api/v3", strings.TrimSpace(cfg.Host), cfg.Port),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  doer,
	}
}

// Movie fetches a single movie record.
func (c *Client) Movie(ctx context.Context, id int64) (Movie, error) {
	var payload map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", id), nil, &payload); err != nil {
		return Movie{}, err
	}
	return decodeMovie(payload)
}

// Movies fetches every movie record in the catalog.
func (c *Client) Movies(ctx context.Context) ([]Movie, error) {
	var payloads []map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/movie", nil, &payloads); err != nil {
		return nil, err
	}
	movies := make([]Movie, 0, len(payloads))
	for _, payload := range payloads {
		movie, err := decodeMovie(payload)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

// UpdateLocation points a movie record at a new directory and root folder.
// The full record is fetched first so fields shuttle does not model survive
// the PUT.
func (c *Client) UpdateLocation(ctx context.Context, subjectID int64, newPath, newRootLabel string) error {
	movie, err := c.Movie(ctx, subjectID)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "update location", "fetch movie", err)
	}

	movie.raw["path"] = mustMarshal(newPath)
	movie.raw["rootFolderPath"] = mustMarshal(newRootLabel)

	body, err := json.Marshal(movie.raw)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "update location", "encode movie", err)
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/movie/%d", subjectID), body, nil); err != nil {
		return services.Wrap(services.ErrCatalog, "update location", "", err)
	}
	return nil
}

// Rescan asks Radarr to rescan a movie's files on disk.
func (c *Client) Rescan(ctx context.Context, subjectID int64) error {
	body, err := json.Marshal(map[string]any{
		"name":    "RescanMovie",
		"movieId": subjectID,
	})
	if err != nil {
		return services.Wrap(services.ErrCatalog, "rescan", "encode command", err)
	}
	if err := c.do(ctx, http.MethodPost, "/command", body, nil); err != nil {
		return services.Wrap(services.ErrCatalog, "rescan", "", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, target any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build radarr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("radarr %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("radarr %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode radarr response: %w", err)
	}
	return nil
}

func decodeMovie(payload map[string]json.RawMessage) (Movie, error) {
	combined, err := json.Marshal(payload)
	if err != nil {
		return Movie{}, fmt.Errorf("encode movie payload: %w", err)
	}
	var movie Movie
	if err := json.Unmarshal(combined, &movie); err != nil {
		return Movie{}, fmt.Errorf("decode movie payload: %w", err)
	}
	movie.raw = payload
	return movie, nil
}

func mustMarshal(value string) json.RawMessage {
	data, err := json.Marshal(value)
	if err != nil {
		// Marshalling a string cannot fail.
		panic(err)
	}
	return data
}
