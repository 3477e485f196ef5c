package quiz

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrSessionNotFound marks an answer or quit event whose session key is no
// longer registered: expired, completed, or never existed. Terminal; callers
// must not retry.
var ErrSessionNotFound = errors.New("quiz session not found")

var errNotOwner = errors.New("session belongs to another user")

// session is one user's in-progress play-through. Sessions live only inside
// the registry; no other component mutates them.
type session struct {
	questions []Question
	ownerID   string
	current   int
	correct   int
	times     []int64

	questionStartedAt time.Time
	lastTouched       time.Time
}

// AnswerResult reports the outcome of one answer event.
type AnswerResult struct {
	Correct       bool
	CorrectIndex  int
	CorrectAnswer string
	ElapsedMs     int64
	Next          *Question // nil when the quiz is complete
	NextNumber    int       // 1-based position of Next in the set
	Total         int
	Summary       *Summary // set only on natural completion
}

// Summary is the final tally of a completed (or quit) session.
type Summary struct {
	CorrectCount int
	Answered     int
	Total        int
	TotalTimeMs  int64
	Score        int
}

// Score computes the final score: correctness rewarded heavily, with the
// total response time in whole seconds as a tiebreaking penalty.
func Score(correctCount int, totalTimeMs int64) int {
	return correctCount*1000 - int(math.Round(float64(totalTimeMs)/1000))
}

// Registry holds all in-flight sessions keyed by owner identity plus a
// creation timestamp, so a user starting a second quiz cannot clobber the
// first. It is an injected dependency, not a process-wide singleton, so
// tests can run isolated instances. On restart all sessions are lost, which
// is acceptable for an ephemeral game.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Start registers a new session and returns its key.
func (r *Registry) Start(ownerID string, questions []Question) string {
	now := r.now()
	key := fmt.Sprintf("%s-%d", ownerID, now.UnixNano())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[key] = &session{
		questions:   questions,
		ownerID:     ownerID,
		lastTouched: now,
	}
	return key
}

// Present returns the current question and marks its start time. Called
// whenever a question is shown, first or subsequent; the elapsed time of the
// eventual answer is measured from the latest call.
func (r *Registry) Present(key string) (Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return Question{}, ErrSessionNotFound
	}
	now := r.now()
	s.questionStartedAt = now
	s.lastTouched = now
	return s.questions[s.current], nil
}

// Answer applies one answer event: elapsed time recorded, correctness
// tallied, pointer advanced. On the final question the session transitions
// to completed and is removed from the registry, with the score summary
// returned to the caller.
func (r *Registry) Answer(key string, ownerID string, choiceIndex int) (AnswerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return AnswerResult{}, ErrSessionNotFound
	}
	if s.ownerID != ownerID {
		return AnswerResult{}, errNotOwner
	}

	now := r.now()
	elapsed := now.Sub(s.questionStartedAt).Milliseconds()
	q := s.questions[s.current]
	correct := choiceIndex == q.CorrectIndex

	s.times = append(s.times, elapsed)
	if correct {
		s.correct++
	}
	s.current++
	s.lastTouched = now

	res := AnswerResult{
		Correct:       correct,
		CorrectIndex:  q.CorrectIndex,
		CorrectAnswer: q.Choices[q.CorrectIndex],
		ElapsedMs:     elapsed,
		Total:         len(s.questions),
	}

	if s.current == len(s.questions) {
		total := sum(s.times)
		res.Summary = &Summary{
			CorrectCount: s.correct,
			Answered:     s.current,
			Total:        len(s.questions),
			TotalTimeMs:  total,
			Score:        Score(s.correct, total),
		}
		delete(r.sessions, key)
		return res, nil
	}

	next := s.questions[s.current]
	s.questionStartedAt = now
	res.Next = &next
	res.NextNumber = s.current + 1
	return res, nil
}

// Quit abandons a session. The partial tally is reported but carries no
// score; it must never be persisted as a best score.
func (r *Registry) Quit(key string, ownerID string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return Summary{}, ErrSessionNotFound
	}
	if s.ownerID != ownerID {
		return Summary{}, errNotOwner
	}
	delete(r.sessions, key)
	return Summary{
		CorrectCount: s.correct,
		Answered:     s.current,
		Total:        len(s.questions),
		TotalTimeMs:  sum(s.times),
	}, nil
}

// IsNotOwner reports whether err is the wrong-owner outcome.
func IsNotOwner(err error) bool { return errors.Is(err, errNotOwner) }

// Sweep removes sessions idle longer than maxIdle and returns how many were
// reclaimed. The registry enforces no per-question timeout itself; abandoned
// sessions are reaped here.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, s := range r.sessions {
		if s.lastTouched.Before(cutoff) {
			delete(r.sessions, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func sum(xs []int64) int64 {
	var t int64
	for _, x := range xs {
		t += x
	}
	return t
}
