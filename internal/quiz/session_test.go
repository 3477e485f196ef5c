package quiz

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func testQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:           fmt.Sprintf("q%d", i),
			Category:     CategoryName,
			Prompt:       fmt.Sprintf("question %d", i),
			Choices:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
		}
	}
	return qs
}

// clockedRegistry returns a registry whose clock advances by step on every
// read, giving deterministic elapsed times.
func clockedRegistry(step time.Duration) *Registry {
	r := NewRegistry()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		t0 = t0.Add(step)
		return t0
	}
	return r
}

func TestSessionFullRunScoring(t *testing.T) {
	r := clockedRegistry(2 * time.Second)
	qs := testQuestions(3)
	key := r.Start("user1", qs)

	if _, err := r.Present(key); err != nil {
		t.Fatal(err)
	}

	var summary *Summary
	for i, q := range qs {
		choice := q.CorrectIndex
		if i == 1 {
			choice = (q.CorrectIndex + 1) % ChoiceCount
		}
		res, err := r.Answer(key, "user1", choice)
		if err != nil {
			t.Fatal(err)
		}
		if (i != 1) != res.Correct {
			t.Errorf("question %d: correct = %v", i, res.Correct)
		}
		summary = res.Summary
	}

	if summary == nil {
		t.Fatal("expected a summary after the last answer")
	}
	if summary.CorrectCount != 2 || summary.Answered != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	// Each answer arrives 2s after its question: 6000 ms total, so
	// 2*1000 - 6 points.
	if summary.TotalTimeMs != 6000 {
		t.Errorf("total time = %d ms, want 6000", summary.TotalTimeMs)
	}
	if summary.Score != 1994 {
		t.Errorf("score = %d, want 1994", summary.Score)
	}
	if r.Len() != 0 {
		t.Error("completed session should be removed from the registry")
	}
}

func TestScoreRoundsSeconds(t *testing.T) {
	cases := []struct {
		correct int
		ms      int64
		want    int
	}{
		{10, 0, 10000},
		{10, 1499, 9999},
		{10, 1500, 9998},
		{0, 30000, -30},
	}
	for _, c := range cases {
		if got := Score(c.correct, c.ms); got != c.want {
			t.Errorf("Score(%d, %d) = %d, want %d", c.correct, c.ms, got, c.want)
		}
	}
}

func TestAnswerAfterQuitIsNotFound(t *testing.T) {
	r := NewRegistry()
	key := r.Start("user1", testQuestions(2))
	if _, err := r.Present(key); err != nil {
		t.Fatal(err)
	}

	summary, err := r.Quit(key, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Answered != 0 || summary.Total != 2 {
		t.Fatalf("quit summary = %+v", summary)
	}

	if _, err := r.Answer(key, "user1", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAnswerRejectsOtherUser(t *testing.T) {
	r := NewRegistry()
	key := r.Start("user1", testQuestions(2))
	if _, err := r.Present(key); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Answer(key, "user2", 0); !IsNotOwner(err) {
		t.Fatalf("expected wrong-owner error, got %v", err)
	}
	// The session must survive the rejected attempt.
	if _, err := r.Answer(key, "user1", 0); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentSessionsSameUser(t *testing.T) {
	r := clockedRegistry(time.Millisecond)
	k1 := r.Start("user1", testQuestions(1))
	k2 := r.Start("user1", testQuestions(1))
	if k1 == k2 {
		t.Fatal("two sessions for the same user must get distinct keys")
	}
	if r.Len() != 2 {
		t.Fatalf("registry len = %d, want 2", r.Len())
	}
}

func TestSweepReapsIdleSessions(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r.now = func() time.Time { return now }

	stale := r.Start("user1", testQuestions(1))
	now = base.Add(30 * time.Minute)
	fresh := r.Start("user2", testQuestions(1))

	now = base.Add(40 * time.Minute)
	if removed := r.Sweep(15 * time.Minute); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := r.Present(stale); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be gone")
	}
	if _, err := r.Present(fresh); err != nil {
		t.Errorf("fresh session should survive, got %v", err)
	}
}
