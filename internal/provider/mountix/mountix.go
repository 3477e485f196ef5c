// Package mountix is the client for the primary structured mountain API
// (https://mountix.codemountains.org). Responses are parsed into typed
// structs at this boundary; nothing upstream sees raw payloads.
package mountix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

const DefaultBaseURL = "https://mountix.codemountains.org/api/v1"

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 8 * time.Second},
	}
}

// apiLocation and apiMountain mirror the upstream response shape.
type apiLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	GsiURL    string   `json:"gsiUrl"`
}

type apiMountain struct {
	ID          json.Number  `json:"id"`
	Name        string       `json:"name"`
	NameKana    string       `json:"nameKana"`
	Area        string       `json:"area"`
	Prefectures []string     `json:"prefectures"`
	Elevation   *float64     `json:"elevation"`
	Location    *apiLocation `json:"location"`
	Tags        []string     `json:"tags"`
}

type searchResponse struct {
	Mountains []apiMountain `json:"mountains"`
	Total     int           `json:"total"`
}

func (m apiMountain) record() (mountain.Record, error) {
	raw := mountain.Raw{
		ID:          m.ID.String(),
		Name:        m.Name,
		NameReading: m.NameKana,
		Elevation:   m.Elevation,
		Regions:     m.Prefectures,
		Source:      mountain.SourceMountix,
	}
	if m.Location != nil {
		raw.Lat = m.Location.Latitude
		raw.Lon = m.Location.Longitude
	}
	return mountain.NewRecord(raw)
}

// Get fetches a single mountain by id. Returns mountain.ErrNotFound on 404.
func (c *Client) Get(ctx context.Context, id string) (mountain.Record, error) {
	u := fmt.Sprintf("%s/mountains/%s", c.baseURL, url.PathEscape(id))
	var m apiMountain
	if err := c.getJSON(ctx, u, &m); err != nil {
		return mountain.Record{}, err
	}
	return m.record()
}

// Search queries by name. The upstream match is strict; the aggregator
// applies its own variant filter on top.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]mountain.Record, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.list(ctx, q)
}

// List fetches a limit-only batch with no name filter, used to build quiz
// candidate pools.
func (c *Client) List(ctx context.Context, limit int) ([]mountain.Record, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.list(ctx, q)
}

func (c *Client) list(ctx context.Context, q url.Values) ([]mountain.Record, error) {
	u := c.baseURL + "/mountains"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	records := make([]mountain.Record, 0, len(resp.Mountains))
	for _, m := range resp.Mountains {
		rec, err := m.record()
		if err != nil {
			// Nameless rows are dropped, not propagated.
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("mountix request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return mountain.ErrNotFound
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("mountix: unexpected status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("mountix: decoding response: %w", err)
	}
	return nil
}
