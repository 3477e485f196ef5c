// Package overpass queries the OpenStreetMap Overpass API for named peaks.
// Results are cached for a short TTL to respect the public endpoint's rate
// limits.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yamanavi/mountainquiz/internal/cache"
	"github.com/yamanavi/mountainquiz/internal/jptext"
	"github.com/yamanavi/mountainquiz/internal/mountain"
)

const (
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"
	DefaultCacheTTL = 5 * time.Minute
)

// Regional bounding boxes covering Japan. Querying them separately keeps
// each Overpass request small enough to finish inside the server timeout.
var regions = [][4]float64{
	{35, 138, 36.5, 140.5}, // Kanto/Chubu
	{33.5, 130, 35, 136},   // Kinki/Chugoku
	{41, 140, 45.5, 146},   // Hokkaido
	{38, 139, 41, 142},     // Tohoku
	{31, 129, 33.5, 132},   // Kyushu
	{24, 123, 27, 129},     // Okinawa
}

type Client struct {
	endpoint string
	httpc    *http.Client
	logger   *slog.Logger
	cache    *cache.TTL[[]mountain.Record]
}

func New(endpoint string, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 65 * time.Second},
		logger:   logger,
		cache:    cache.NewTTL[[]mountain.Record](cacheTTL),
	}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// SearchByName searches peaks and volcanoes whose name matches the query,
// post-filtered through kana-variant matching. Cache hits skip the network
// entirely.
func (c *Client) SearchByName(ctx context.Context, query string, limit int) ([]mountain.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	cacheKey := query + ":" + strconv.Itoa(limit)
	if hit, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("overpass cache hit", "query", query, "results", len(hit))
		return hit, nil
	}

	body := buildQuery(query, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: unexpected status %d", res.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("overpass: decoding response: %w", err)
	}

	records := c.parseElements(parsed.Elements)
	records = filterByQuery(records, query)
	if len(records) > limit {
		records = records[:limit]
	}

	c.cache.Set(cacheKey, records)
	return records, nil
}

func buildQuery(query string, limit int) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:60];\n(\n")
	for _, r := range regions {
		box := fmt.Sprintf("%g,%g,%g,%g", r[0], r[1], r[2], r[3])
		fmt.Fprintf(&b, "  node[\"natural\"=\"peak\"][\"name\"~\"%s\",i](%s);\n", query, box)
		fmt.Fprintf(&b, "  node[\"natural\"=\"volcano\"][\"name\"~\"%s\",i](%s);\n", query, box)
	}
	fmt.Fprintf(&b, ");\nout body %d;", min(limit, 100))
	return b.String()
}

func (c *Client) parseElements(elements []overpassElement) []mountain.Record {
	records := make([]mountain.Record, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}

		reading := el.Tags["name:ja-Hira"]
		if reading == "" {
			reading = el.Tags["name:ja_kana"]
		}
		if reading == "" {
			// Map contributors sometimes glue the reading onto the name.
			split, r := jptext.SplitNameReading(name)
			if r != "" {
				name, reading = split, r
			}
		}

		raw := mountain.Raw{
			ID:          fmt.Sprintf("osm-%s-%d", el.Type, el.ID),
			Name:        name,
			NameReading: reading,
			Description: firstNonEmpty(el.Tags["description"], el.Tags["note"]),
			Source:      mountain.SourceOSM,
		}
		if ele := el.Tags["ele"]; ele != "" {
			if f, err := strconv.ParseFloat(ele, 64); err == nil {
				raw.Elevation = &f
			}
		}
		switch {
		case el.Lat != nil && el.Lon != nil:
			raw.Lat, raw.Lon = el.Lat, el.Lon
		case el.Center != nil:
			raw.Lat, raw.Lon = &el.Center.Lat, &el.Center.Lon
		}

		rec, err := mountain.NewRecord(raw)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func filterByQuery(records []mountain.Record, query string) []mountain.Record {
	qvars := jptext.Variants(jptext.Normalize(query))
	out := records[:0]
	for _, rec := range records {
		cvars := jptext.Variants(jptext.Normalize(rec.Name))
		if rec.NameReading != "" {
			cvars = append(cvars, jptext.Variants(jptext.Normalize(rec.NameReading))...)
		}
		if jptext.AnyVariantMatch(qvars, cvars) {
			out = append(out, rec)
		}
	}
	return out
}

// WebURL returns the openstreetmap.org page for a record's coordinates, or
// an empty string when it has none.
func WebURL(rec mountain.Record) string {
	if rec.Coordinates == nil {
		return ""
	}
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%g&mlon=%g#map=15/%g/%g",
		rec.Coordinates.Lat, rec.Coordinates.Lon, rec.Coordinates.Lat, rec.Coordinates.Lon)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
