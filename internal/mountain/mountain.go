// Package mountain defines the core domain types. It has no dependencies on
// storage or transport; records are validated once at construction and never
// mutated afterwards.
package mountain

import (
	"errors"
	"math"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Elevation and coordinate sanity bounds. Out-of-range values are discarded
// (treated as absent), not clamped. The bounding box approximates Japan.
const (
	MinElevation = -500
	MaxElevation = 10000

	MinLat = 20.0
	MaxLat = 46.0
	MinLon = 120.0
	MaxLon = 154.0
)

// Source labels identify which provider produced a record.
const (
	SourceMountix   = "Mountix"
	SourceOSM       = "OSM"
	SourceLocal     = "Local"
	SourceWikipedia = "Wikipedia"
)

var (
	ErrNoName = errors.New("mountain record has no name")

	// ErrNotFound marks a lookup that legitimately found nothing. Providers
	// and stores return it instead of provider-specific failures so callers
	// can distinguish absence from infrastructure errors.
	ErrNotFound = errors.New("not found")
)

// Coordinates is a validated latitude/longitude pair rounded to 6 decimals.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is the canonical representation of a named peak. IDs are namespaced
// by source ("osm-node-123", "user-<uuid>", Mountix numeric ids) so that
// dedup by id never collides across providers.
type Record struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	NameReading string       `json:"nameReading,omitempty"`
	Elevation   *int         `json:"elevation,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Description string       `json:"description,omitempty"`
	PhotoURL    string       `json:"photoUrl,omitempty"`
	Regions     []string     `json:"regions,omitempty"`
	SourceLabel string       `json:"sourceLabel"`
}

// Raw is the parsed-but-unvalidated shape a provider hands to NewRecord.
type Raw struct {
	ID          string
	Name        string
	NameReading string
	Elevation   *float64
	Lat         *float64
	Lon         *float64
	Description string
	PhotoURL    string
	Regions     []string
	Source      string
}

// NewRecord validates and normalizes a raw provider record. The name is
// NFKC-normalized; a record with no name is invalid and never surfaced.
func NewRecord(raw Raw) (Record, error) {
	if raw.Name == "" {
		return Record{}, ErrNoName
	}
	rec := Record{
		ID:          raw.ID,
		Name:        norm.NFKC.String(raw.Name),
		NameReading: raw.NameReading,
		Description: raw.Description,
		PhotoURL:    raw.PhotoURL,
		Regions:     raw.Regions,
		SourceLabel: raw.Source,
	}

	if raw.Elevation != nil {
		elev := int(math.Floor(*raw.Elevation))
		if elev >= MinElevation && elev <= MaxElevation {
			rec.Elevation = &elev
		}
	}

	if raw.Lat != nil && raw.Lon != nil {
		lat := math.Round(*raw.Lat*1e6) / 1e6
		lon := math.Round(*raw.Lon*1e6) / 1e6
		if lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon {
			rec.Coordinates = &Coordinates{Lat: lat, Lon: lon}
		}
	}

	return rec, nil
}

// Submission is a community-submitted record awaiting moderation. Only
// approved submissions are visible to search; by-id lookup sees any status so
// the moderation flow can inspect pending entries.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NameKana    string    `json:"nameKana,omitempty"`
	Elevation   *int      `json:"elevation,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	AddedBy     string    `json:"addedBy,omitempty"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record converts an approved submission into a search result record with a
// "user-" prefixed id.
func (s Submission) Record() (Record, error) {
	raw := Raw{
		ID:          "user-" + s.ID,
		Name:        s.Name,
		NameReading: s.NameKana,
		Description: s.Description,
		PhotoURL:    s.PhotoURL,
		Source:      SourceLocal,
	}
	if s.Elevation != nil {
		f := float64(*s.Elevation)
		raw.Elevation = &f
	}
	return NewRecord(raw)
}

// ScoreRecord is the persisted best-score entry for one player. A stored
// score is only ever replaced by a strictly greater one.
type ScoreRecord struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	TotalTimeMs int64  `json:"totalTimeMs"`
}
