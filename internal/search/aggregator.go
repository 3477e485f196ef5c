// Package search merges mountain records from the primary API, the
// crowd-sourced map, locally approved community submissions and the
// encyclopedia into one deduplicated, relevance-filtered result list.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yamanavi/mountainquiz/internal/jptext"
	"github.com/yamanavi/mountainquiz/internal/mountain"
	"github.com/yamanavi/mountainquiz/internal/provider/wikipedia"
)

// PrimaryProvider is the structured mountain API.
type PrimaryProvider interface {
	Get(ctx context.Context, id string) (mountain.Record, error)
	Search(ctx context.Context, name string, limit int) ([]mountain.Record, error)
	List(ctx context.Context, limit int) ([]mountain.Record, error)
}

// PeakProvider is the crowd-sourced map source.
type PeakProvider interface {
	SearchByName(ctx context.Context, query string, limit int) ([]mountain.Record, error)
}

// SummaryProvider is the encyclopedia fallback for by-id lookups.
type SummaryProvider interface {
	GetSummary(ctx context.Context, title string) (wikipedia.Summary, error)
}

// SubmissionSource exposes community-submitted records. ListApproved is the
// only read path used for searching; Find sees any approval status so that
// id lookups work for pending entries too.
type SubmissionSource interface {
	ListApproved(ctx context.Context, limit int) ([]mountain.Submission, error)
	Find(ctx context.Context, idOrName string) (mountain.Submission, error)
}

type Aggregator struct {
	primary      PrimaryProvider
	peaks        PeakProvider
	encyclopedia SummaryProvider
	submissions  SubmissionSource
	logger       *slog.Logger
}

func New(primary PrimaryProvider, peaks PeakProvider, encyclopedia SummaryProvider, submissions SubmissionSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		primary:      primary,
		peaks:        peaks,
		encyclopedia: encyclopedia,
		submissions:  submissions,
		logger:       logger,
	}
}

// Search queries the map provider and the primary API concurrently, prepends
// approved community submissions, applies kana-variant filtering and
// deduplicates by id. Individual provider failures degrade to zero records
// from that provider; the overall call only returns an empty list, never an
// error, when every source comes up empty.
//
// An empty name returns immediately without touching the network.
func (a *Aggregator) Search(ctx context.Context, name string, limit int) ([]mountain.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var (
		wg         sync.WaitGroup
		osmResults []mountain.Record
		apiResults []mountain.Record
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		recs, err := a.peaks.SearchByName(ctx, name, limit)
		if err != nil {
			a.logger.Warn("map provider search failed", "query", name, "err", err)
			return
		}
		osmResults = recs
	}()
	go func() {
		defer wg.Done()
		recs, err := a.primary.Search(ctx, name, limit)
		if err != nil {
			a.logger.Warn("primary provider search failed", "query", name, "err", err)
			return
		}
		apiResults = recs
	}()
	wg.Wait()

	// Community results take priority in display order.
	results := a.approvedMatches(ctx, name)
	results = append(results, osmResults...)
	results = append(results, apiResults...)

	results = filterVariants(results, name)
	results = dedupeByID(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Pool fetches a limit-only batch from the primary provider with no name
// filter or variant matching. The quiz builder uses it for candidate pools.
func (a *Aggregator) Pool(ctx context.Context, limit int) ([]mountain.Record, error) {
	return a.primary.List(ctx, limit)
}

// approvedMatches loads approved submissions and keeps the ones whose name
// or reading variant-matches the query.
func (a *Aggregator) approvedMatches(ctx context.Context, name string) []mountain.Record {
	subs, err := a.submissions.ListApproved(ctx, 200)
	if err != nil {
		a.logger.Warn("listing approved submissions failed", "err", err)
		return nil
	}
	qvars := jptext.Variants(jptext.Normalize(name))
	var out []mountain.Record
	for _, s := range subs {
		cvars := jptext.Variants(jptext.Normalize(s.Name))
		if s.NameKana != "" {
			cvars = append(cvars, jptext.Variants(jptext.Normalize(s.NameKana))...)
		}
		if !jptext.AnyVariantMatch(qvars, cvars) {
			continue
		}
		rec, err := s.Record()
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// filterVariants keeps candidates whose name or reading matches any query
// variant bidirectionally. An empty variant set (a query reduced to nothing
// by normalization) falls back to the unfiltered results.
func filterVariants(records []mountain.Record, query string) []mountain.Record {
	qvars := jptext.Variants(jptext.Normalize(query))
	if len(qvars) == 0 {
		return records
	}
	out := make([]mountain.Record, 0, len(records))
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

func dedupeByID(records []mountain.Record) []mountain.Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// lookupStrategy is one step of the by-id fallback chain. Keeping the chain
// as data makes the order visible and testable.
type lookupStrategy struct {
	name string
	fn   func(ctx context.Context, id string) (mountain.Record, error)
}

func (a *Aggregator) strategies() []lookupStrategy {
	return []lookupStrategy{
		{name: "primary", fn: a.lookupPrimary},
		{name: "local", fn: a.lookupLocal},
		{name: "encyclopedia", fn: a.lookupEncyclopedia},
	}
}

// Lookup resolves a single record by id, trying the primary API, the local
// submission store and the encyclopedia in that order. Returns
// mountain.ErrNotFound only after every strategy has failed.
func (a *Aggregator) Lookup(ctx context.Context, id string) (mountain.Record, error) {
	if strings.TrimSpace(id) == "" {
		return mountain.Record{}, mountain.ErrNotFound
	}
	for _, st := range a.strategies() {
		rec, err := st.fn(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, mountain.ErrNotFound) {
			a.logger.Warn("lookup strategy failed", "strategy", st.name, "id", id, "err", err)
		}
	}
	return mountain.Record{}, mountain.ErrNotFound
}

func (a *Aggregator) lookupPrimary(ctx context.Context, id string) (mountain.Record, error) {
	return a.primary.Get(ctx, id)
}

func (a *Aggregator) lookupLocal(ctx context.Context, id string) (mountain.Record, error) {
	sub, err := a.submissions.Find(ctx, strings.TrimPrefix(id, "user-"))
	if err != nil {
		return mountain.Record{}, err
	}
	return sub.Record()
}

func (a *Aggregator) lookupEncyclopedia(ctx context.Context, id string) (mountain.Record, error) {
	s, err := a.encyclopedia.GetSummary(ctx, id)
	if err != nil {
		return mountain.Record{}, err
	}
	return mountain.NewRecord(mountain.Raw{
		ID:          fmt.Sprintf("wiki-%s", s.Title),
		Name:        s.Title,
		Description: s.Extract,
		PhotoURL:    s.ImageURL,
		Source:      mountain.SourceWikipedia,
	})
}
