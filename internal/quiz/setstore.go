package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

// SetStore persists built question sets to a directory, keyed by creation
// timestamp, so that a start action arriving as a separate interaction can
// retrieve the most recent set. Files are named quiz_<unix-ms>.json; the
// lexicographically last one wins (unix-ms timestamps sort correctly until
// the year 2286).
type SetStore struct {
	dir string
	now func() time.Time
}

func NewSetStore(dir string) *SetStore {
	return &SetStore{dir: dir, now: time.Now}
}

type storedSet struct {
	CreatedAt int64      `json:"created_at"`
	Questions []Question `json:"questions"`
}

func (s *SetStore) Save(questions []Question) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating quiz dir: %w", err)
	}
	ts := s.now().UnixMilli()
	data, err := json.Marshal(storedSet{CreatedAt: ts, Questions: questions})
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("quiz_%013d.json", ts))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing quiz set: %w", err)
	}
	return nil
}

// Latest returns the most recently saved set, or mountain.ErrNotFound when
// none exists.
func (s *SetStore) Latest() ([]Question, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mountain.ErrNotFound
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "quiz_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, mountain.ErrNotFound
	}
	sort.Strings(names)

	data, err := os.ReadFile(filepath.Join(s.dir, names[len(names)-1]))
	if err != nil {
		return nil, err
	}
	var stored storedSet
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parsing stored quiz set: %w", err)
	}
	return stored.Questions, nil
}

// Prune deletes stored sets older than maxAge. Returns the number removed.
func (s *SetStore) Prune(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || e.IsDir() || !strings.HasPrefix(e.Name(), "quiz_") {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}
