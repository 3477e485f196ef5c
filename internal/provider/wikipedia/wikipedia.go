// Package wikipedia fetches page summaries and representative images from
// the Japanese Wikipedia REST API. Image lookups are expensive (several
// title candidates per name), so results — including negative ones — are
// cached with a long TTL.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yamanavi/mountainquiz/internal/cache"
	"github.com/yamanavi/mountainquiz/internal/mountain"
)

const (
	DefaultBaseURL  = "https://ja.wikipedia.org"
	DefaultImageTTL = 30 * 24 * time.Hour
)

// Summary is the typed subset of the REST summary response the service uses.
type Summary struct {
	Title    string
	Extract  string
	ImageURL string
	PageURL  string
}

type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
	images  *cache.TTL[string]
}

func New(baseURL string, imageTTL time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if imageTTL <= 0 {
		imageTTL = DefaultImageTTL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
		images:  cache.NewTTL[string](imageTTL),
	}
}

type summaryResponse struct {
	Title         string `json:"title"`
	Extract       string `json:"extract"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
	ContentURLs *struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// GetSummary fetches the page summary for a title. Returns
// mountain.ErrNotFound when no page exists.
func (c *Client) GetSummary(ctx context.Context, title string) (Summary, error) {
	u := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", c.baseURL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Summary{}, err
	}
	res, err := c.httpc.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("wikipedia request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return Summary{}, mountain.ErrNotFound
	case res.StatusCode != http.StatusOK:
		return Summary{}, fmt.Errorf("wikipedia: unexpected status %d", res.StatusCode)
	}

	var parsed summaryResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Summary{}, fmt.Errorf("wikipedia: decoding summary: %w", err)
	}
	if parsed.Title == "" {
		return Summary{}, mountain.ErrNotFound
	}

	s := Summary{Title: parsed.Title, Extract: parsed.Extract}
	if parsed.OriginalImage != nil {
		s.ImageURL = ensureHTTPS(parsed.OriginalImage.Source)
	}
	if parsed.ContentURLs != nil && parsed.ContentURLs.Desktop.Page != "" {
		s.PageURL = parsed.ContentURLs.Desktop.Page
	} else {
		s.PageURL = fmt.Sprintf("%s/wiki/%s", c.baseURL, url.PathEscape(parsed.Title))
	}
	return s, nil
}

// ImageURL resolves a representative image for a mountain name, trying the
// name, its reading and common suffixed page titles. Negative results are
// cached too, so repeated misses stay cheap.
func (c *Client) ImageURL(ctx context.Context, name, reading string) string {
	if name == "" {
		return ""
	}
	if hit, ok := c.images.Get(name); ok {
		return hit
	}

	candidates := []string{name}
	if reading != "" {
		candidates = append(candidates, reading)
	}
	candidates = append(candidates, name+"山", name+"岳", name+" (山)")

	var found string
	for _, title := range candidates {
		s, err := c.GetSummary(ctx, title)
		if err != nil {
			c.logger.Debug("wikipedia image candidate failed", "title", title, "err", err)
			continue
		}
		if s.ImageURL != "" {
			found = s.ImageURL
			break
		}
	}

	c.images.Set(name, found)
	return found
}

func ensureHTTPS(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http:"):
		return "https:" + u[len("http:"):]
	}
	return u
}
