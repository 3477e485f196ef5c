package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

func TestSetStoreLatestPicksNewestSlot(t *testing.T) {
	store := NewSetStore(t.TempDir())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }

	first := []Question{{ID: "old", Choices: []string{"a", "b", "c", "d"}}}
	second := []Question{{ID: "new", Choices: []string{"a", "b", "c", "d"}}}

	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}
	now = base.Add(time.Second)
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("latest = %+v, want the second set", got)
	}
}

func TestSetStoreLatestEmptyDirIsNotFound(t *testing.T) {
	store := NewSetStore(t.TempDir())
	if _, err := store.Latest(); !errors.Is(err, mountain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStoreLatestMissingDirIsNotFound(t *testing.T) {
	store := NewSetStore(t.TempDir() + "/never-created")
	if _, err := store.Latest(); !errors.Is(err, mountain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStoreRoundTripsQuestions(t *testing.T) {
	store := NewSetStore(t.TempDir())
	in := []Question{{
		ID:           "fuji",
		Category:     CategoryElevation,
		Prompt:       "富士山 の標高はどれ？ (m)",
		Choices:      []string{"3700", "3776", "3800", "3850"},
		CorrectIndex: 1,
	}}
	if err := store.Save(in); err != nil {
		t.Fatal(err)
	}
	got, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].CorrectIndex != 1 || got[0].Prompt != in[0].Prompt {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
