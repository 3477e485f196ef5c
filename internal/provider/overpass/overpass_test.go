package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const fujiResponse = `{
	"elements": [
		{
			"type": "node",
			"id": 123,
			"lat": 35.36060601,
			"lon": 138.72740299,
			"tags": {"natural": "peak", "name": "富士山", "name:ja-Hira": "ふじさん", "ele": "3776"}
		},
		{
			"type": "node",
			"id": 456,
			"lat": 36.4,
			"lon": 138.5,
			"tags": {"natural": "volcano", "name": "浅間山", "ele": "2568"}
		},
		{
			"type": "node",
			"id": 789,
			"lat": 35.5,
			"lon": 138.9,
			"tags": {"natural": "peak"}
		}
	]
}`

func TestSearchByNameParsesAndFilters(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(fujiResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Minute, discard())
	got, err := c.SearchByName(context.Background(), "富士", 10)
	if err != nil {
		t.Fatal(err)
	}

	// The nameless element is dropped and 浅間山 fails the variant filter.
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %+v", got)
	}
	r := got[0]
	if r.ID != "osm-node-123" || r.Name != "富士山" || r.NameReading != "ふじさん" {
		t.Fatalf("record = %+v", r)
	}
	if r.Elevation == nil || *r.Elevation != 3776 {
		t.Fatalf("elevation = %v", r.Elevation)
	}
	if r.SourceLabel != mountain.SourceOSM {
		t.Errorf("source = %q", r.SourceLabel)
	}

	if !strings.Contains(gotBody, `node["natural"="peak"]["name"~"富士",i]`) {
		t.Errorf("query missing peak clause:\n%s", gotBody)
	}
	if strings.Count(gotBody, `["natural"="volcano"]`) != len(regions) {
		t.Errorf("expected one volcano clause per region:\n%s", gotBody)
	}
}

func TestSearchByNameCachesResults(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(fujiResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Minute, discard())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.SearchByName(ctx, "富士", 10); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}

	// A different limit is a different cache key.
	if _, err := c.SearchByName(ctx, "富士", 20); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}

func TestSearchByNameSplitsGluedReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [
			{"type": "node", "id": 1, "lat": 35.9, "lon": 138.3,
			 "tags": {"natural": "peak", "name": "八ヶ岳やつがたけ", "ele": "2899"}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Minute, discard())
	got, err := c.SearchByName(context.Background(), "八ヶ岳", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("results = %+v", got)
	}
	if got[0].Name != "八ヶ岳" || got[0].NameReading != "やつがたけ" {
		t.Fatalf("split = %q / %q", got[0].Name, got[0].NameReading)
	}
}

func TestSearchByNameUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Minute, discard())
	if _, err := c.SearchByName(context.Background(), "富士", 10); err == nil {
		t.Fatal("expected an error for a 429")
	}
}

func TestWebURL(t *testing.T) {
	rec := mountain.Record{Coordinates: &mountain.Coordinates{Lat: 35.360606, Lon: 138.727403}}
	got := WebURL(rec)
	if !strings.Contains(got, "mlat=35.360606") || !strings.Contains(got, "mlon=138.727403") {
		t.Errorf("url = %q", got)
	}
	if WebURL(mountain.Record{}) != "" {
		t.Error("expected empty url without coordinates")
	}
}
