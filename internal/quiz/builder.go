package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"

	"github.com/yamanavi/mountainquiz/internal/mountain"
	"github.com/yamanavi/mountainquiz/internal/provider/trivia"
)

const (
	// SetSize is the fixed length of a built question set.
	SetSize = 10

	mountainQuestionTarget = 3
	triviaQuestionTarget   = 7

	poolLimit   = 200
	topPoolSize = 50
	minPoolSize = 20
	maxAttempts = 100
)

// PoolProvider supplies the candidate mountain pool.
type PoolProvider interface {
	Pool(ctx context.Context, limit int) ([]mountain.Record, error)
}

// TriviaProvider generates general trivia tuples. Optional and best-effort.
type TriviaProvider interface {
	Generate(ctx context.Context, count int) ([]trivia.Question, error)
}

type Builder struct {
	pool   PoolProvider
	trivia TriviaProvider // may be nil
	store  *SetStore
	logger *slog.Logger
}

func NewBuilder(pool PoolProvider, tp TriviaProvider, store *SetStore, logger *slog.Logger) *Builder {
	return &Builder{pool: pool, trivia: tp, store: store, logger: logger}
}

// Build assembles exactly SetSize questions — a rotation of mountain-derived
// categories plus generated trivia — shuffles them and persists the set so a
// later start action can retrieve it. Trivia failure never blocks creation:
// missing slots are filled from the mountain pool.
func (b *Builder) Build(ctx context.Context) ([]Question, error) {
	records, err := b.pool.Pool(ctx, poolLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate pool: %w", err)
	}

	pool := usablePool(records)
	if len(pool) < minPoolSize {
		return nil, fmt.Errorf("not enough mountains to build a quiz: %d usable", len(pool))
	}

	// Bias toward well-known peaks: highest elevations first.
	sort.Slice(pool, func(i, j int) bool {
		return *pool[i].Elevation > *pool[j].Elevation
	})
	if len(pool) > topPoolSize {
		pool = pool[:topPoolSize]
	}

	questions := b.mountainQuestions(pool, mountainQuestionTarget)
	questions = append(questions, b.triviaQuestions(ctx)...)

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	if len(questions) > SetSize {
		questions = questions[:SetSize]
	}
	questions = b.padWithNameQuestions(questions, pool)

	if b.store != nil {
		if err := b.store.Save(questions); err != nil {
			// Persisting the slot is best-effort; the caller still gets the set.
			b.logger.Warn("saving quiz set failed", "err", err)
		}
	}
	return questions, nil
}

// usablePool keeps records that can seed any mountain question: a name, an
// elevation and at least one region.
func usablePool(records []mountain.Record) []mountain.Record {
	out := make([]mountain.Record, 0, len(records))
	for _, r := range records {
		if r.Name != "" && r.Elevation != nil && len(r.Regions) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func (b *Builder) mountainQuestions(pool []mountain.Record, target int) []Question {
	rotation := []Category{CategoryElevation, CategoryName, CategoryRegion}
	used := make(map[string]struct{}, target)
	var questions []Question
	for attempts := 0; len(questions) < target && attempts < maxAttempts; attempts++ {
		category := rotation[len(questions)%len(rotation)]
		item := pool[rand.IntN(len(pool))]
		// Question ids are unique within a set, so a pool member seeds at
		// most one question.
		if _, ok := used[item.ID]; ok {
			continue
		}
		q, err := buildMountainQuestion(category, item, pool)
		if err != nil {
			continue
		}
		used[item.ID] = struct{}{}
		questions = append(questions, q)
	}
	return questions
}

func buildMountainQuestion(category Category, item mountain.Record, pool []mountain.Record) (Question, error) {
	switch category {
	case CategoryElevation:
		return elevationQuestion(item)
	case CategoryName:
		// Upgrade the identification slot when the record carries richer
		// material: a photo beats a description beats the bare elevation.
		if item.PhotoURL != "" {
			return photoQuestion(item, pool)
		}
		if item.Description != "" {
			return descriptionQuestion(item, pool)
		}
		return nameQuestion(item, pool)
	case CategoryRegion:
		return regionQuestion(item, pool)
	default:
		return Question{}, fmt.Errorf("unsupported category %q", category)
	}
}

// elevationQuestion asks for the item's elevation among decoys offset by a
// random amount in [-100, +100], floored at 0 and sorted ascending. The
// correct answer lands wherever the sort puts it.
func elevationQuestion(item mountain.Record) (Question, error) {
	elev := *item.Elevation
	correct := strconv.Itoa(elev)
	choices := map[string]struct{}{correct: {}}
	// Bounded: deeply negative elevations floor every decoy to "0", which
	// can never yield four distinct choices.
	for attempts := 0; len(choices) < ChoiceCount && attempts < maxAttempts; attempts++ {
		delta := rand.IntN(201) - 100
		choices[strconv.Itoa(max(0, elev+delta))] = struct{}{}
	}
	if len(choices) < ChoiceCount {
		return Question{}, fmt.Errorf("not enough elevation decoys for %s", item.Name)
	}

	arr := make([]string, 0, ChoiceCount)
	for c := range choices {
		arr = append(arr, c)
	}
	sort.Slice(arr, func(i, j int) bool {
		a, _ := strconv.Atoi(arr[i])
		b, _ := strconv.Atoi(arr[j])
		return a < b
	})

	return Question{
		ID:           item.ID,
		Category:     CategoryElevation,
		Prompt:       fmt.Sprintf("%s の標高はどれ？ (m)", item.Name),
		Choices:      arr,
		CorrectIndex: slices.Index(arr, correct),
	}, nil
}

// nameChoices builds four shuffled mountain names with item's own name among
// them, returning the correct index.
func nameChoices(item mountain.Record, pool []mountain.Record) ([]string, int, error) {
	decoys := pickDistinct(pool, 3, func(r mountain.Record) (string, bool) {
		if r.ID == item.ID || r.Name == item.Name {
			return "", false
		}
		return r.Name, true
	})
	if len(decoys) < 3 {
		return nil, 0, fmt.Errorf("not enough name decoys for %s", item.Name)
	}
	choices := shuffled(append(decoys, item.Name))
	return choices, slices.Index(choices, item.Name), nil
}

func nameQuestion(item mountain.Record, pool []mountain.Record) (Question, error) {
	choices, idx, err := nameChoices(item, pool)
	if err != nil {
		return Question{}, err
	}
	return Question{
		ID:           item.ID,
		Category:     CategoryName,
		Prompt:       fmt.Sprintf("この山の名前はどれ？ 標高: %d m", *item.Elevation),
		Choices:      choices,
		CorrectIndex: idx,
	}, nil
}

func descriptionQuestion(item mountain.Record, pool []mountain.Record) (Question, error) {
	choices, idx, err := nameChoices(item, pool)
	if err != nil {
		return Question{}, err
	}
	desc := item.Description
	if runes := []rune(desc); len(runes) > 120 {
		desc = string(runes[:120]) + "…"
	}
	return Question{
		ID:           item.ID,
		Category:     CategoryDescription,
		Prompt:       fmt.Sprintf("次の説明に当てはまる山はどれ？\n%s", desc),
		Choices:      choices,
		CorrectIndex: idx,
	}, nil
}

func photoQuestion(item mountain.Record, pool []mountain.Record) (Question, error) {
	choices, idx, err := nameChoices(item, pool)
	if err != nil {
		return Question{}, err
	}
	return Question{
		ID:           item.ID,
		Category:     CategoryPhoto,
		Prompt:       "この写真の山はどれ？",
		PhotoURL:     item.PhotoURL,
		Choices:      choices,
		CorrectIndex: idx,
	}, nil
}

func regionQuestion(item mountain.Record, pool []mountain.Record) (Question, error) {
	correct := item.Regions[0]
	decoys := pickDistinct(pool, 3, func(r mountain.Record) (string, bool) {
		if r.ID == item.ID || len(r.Regions) == 0 || r.Regions[0] == correct {
			return "", false
		}
		return r.Regions[0], true
	})
	if len(decoys) < 3 {
		return Question{}, fmt.Errorf("not enough region decoys for %s", item.Name)
	}
	choices := shuffled(append(decoys, correct))
	return Question{
		ID:           item.ID,
		Category:     CategoryRegion,
		Prompt:       fmt.Sprintf("%s の都道府県はどれ？", item.Name),
		Choices:      choices,
		CorrectIndex: slices.Index(choices, correct),
	}, nil
}

// triviaQuestions fetches generated trivia and drops any tuple whose
// declared answer is not verbatim among its own options.
func (b *Builder) triviaQuestions(ctx context.Context) []Question {
	if b.trivia == nil {
		return nil
	}
	generated, err := b.trivia.Generate(ctx, triviaQuestionTarget)
	if err != nil {
		b.logger.Warn("trivia generation failed", "err", err)
		return nil
	}

	var questions []Question
	for i, g := range generated {
		idx := slices.Index(g.Options, g.Answer)
		if idx < 0 || len(g.Options) != ChoiceCount || hasDuplicates(g.Options) {
			b.logger.Warn("discarding invalid trivia tuple", "question", g.Question)
			continue
		}
		questions = append(questions, Question{
			ID:           fmt.Sprintf("trivia-%d", i),
			Category:     CategoryTrivia,
			Prompt:       g.Question,
			Choices:      g.Options,
			CorrectIndex: idx,
		})
	}
	return questions
}

// padWithNameQuestions deterministically fills remaining slots with
// name-identification questions from pool members not yet used.
func (b *Builder) padWithNameQuestions(questions []Question, pool []mountain.Record) []Question {
	used := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		used[q.ID] = struct{}{}
	}
	for _, item := range pool {
		if len(questions) >= SetSize {
			break
		}
		if _, ok := used[item.ID]; ok {
			continue
		}
		q, err := nameQuestion(item, pool)
		if err != nil {
			continue
		}
		questions = append(questions, q)
		used[item.ID] = struct{}{}
	}
	return questions
}

func pickDistinct(pool []mountain.Record, n int, extract func(mountain.Record) (string, bool)) []string {
	perm := rand.Perm(len(pool))
	seen := make(map[string]struct{}, n)
	var out []string
	for _, i := range perm {
		if len(out) == n {
			break
		}
		v, ok := extract(pool[i])
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func shuffled(choices []string) []string {
	out := slices.Clone(choices)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func hasDuplicates(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, ok := seen[o]; ok {
			return true
		}
		seen[o] = struct{}{}
	}
	return false
}
