package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yamanavi/mountainquiz/internal/mountain"
	"github.com/yamanavi/mountainquiz/internal/provider/openmeteo"
	"github.com/yamanavi/mountainquiz/internal/provider/overpass"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Searcher is the aggregated multi-provider search surface.
type Searcher interface {
	Search(ctx context.Context, name string, limit int) ([]mountain.Record, error)
	Lookup(ctx context.Context, idOrName string) (mountain.Record, error)
}

// Forecaster provides point weather forecasts.
type Forecaster interface {
	Fetch(ctx context.Context, lat, lon float64, days int) (openmeteo.Forecast, error)
}

// ImageResolver resolves a representative photo for a mountain name.
type ImageResolver interface {
	ImageURL(ctx context.Context, name, reading string) string
}

// SearchResponse is the response for GET /api/mountains.
type SearchResponse struct {
	Query   string            `json:"query"`
	Results []mountain.Record `json:"results"`
}

// MountainDetail is the response for GET /api/mountains/{id}.
type MountainDetail struct {
	mountain.Record
	MapURL string `json:"mapUrl,omitempty"`
	OSMURL string `json:"osmUrl,omitempty"`
}

func handleSearch(search Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		limit := defaultSearchLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxSearchLimit)
		}

		results, err := search.Search(r.Context(), name, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if results == nil {
			results = []mountain.Record{}
		}
		writeJSON(w, http.StatusOK, SearchResponse{Query: name, Results: results})
	}
}

func handleGetMountain(search Searcher, images ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := search.Lookup(r.Context(), id)
		if errors.Is(err, mountain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mountain not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if rec.PhotoURL == "" && images != nil {
			rec.PhotoURL = images.ImageURL(r.Context(), rec.Name, rec.NameReading)
		}

		detail := MountainDetail{Record: rec}
		if rec.Coordinates != nil {
			detail.MapURL = gsiMapURL(*rec.Coordinates)
			detail.OSMURL = overpass.WebURL(rec)
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleForecast(search Searcher, weather Forecaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := search.Lookup(r.Context(), id)
		if errors.Is(err, mountain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mountain not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if rec.Coordinates == nil {
			writeError(w, http.StatusUnprocessableEntity, "mountain has no coordinates")
			return
		}

		days := 3
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 7 {
				writeError(w, http.StatusBadRequest, "days must be between 1 and 7")
				return
			}
			days = n
		}

		fc, err := weather.Fetch(r.Context(), rec.Coordinates.Lat, rec.Coordinates.Lon, days)
		if err != nil {
			writeError(w, http.StatusBadGateway, "forecast unavailable")
			return
		}
		writeJSON(w, http.StatusOK, fc)
	}
}

// gsiMapURL points at the GSI (Geospatial Information Authority of Japan)
// web map centered on the coordinates.
func gsiMapURL(c mountain.Coordinates) string {
	return fmt.Sprintf("https://maps.gsi.go.jp/#15/%g/%g/", c.Lat, c.Lon)
}
