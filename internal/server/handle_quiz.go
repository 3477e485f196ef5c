package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yamanavi/mountainquiz/internal/mountain"
	"github.com/yamanavi/mountainquiz/internal/quiz"
)

// QuizBuilder assembles a fresh question set.
type QuizBuilder interface {
	Build(ctx context.Context) ([]quiz.Question, error)
}

// SetSource returns the most recently built question set.
type SetSource interface {
	Latest() ([]quiz.Question, error)
}

// QuestionView is a question as shown to players: the correct index never
// crosses the wire.
type QuestionView struct {
	Number   int           `json:"number"`
	Total    int           `json:"total"`
	Category quiz.Category `json:"category"`
	Prompt   string        `json:"prompt"`
	PhotoURL string        `json:"photoUrl,omitempty"`
	Choices  []string      `json:"choices"`
}

// BuildQuizResponse is the response for POST /api/quiz.
type BuildQuizResponse struct {
	Questions int `json:"questions"`
}

// StartQuizRequest is the request body for POST /api/quiz/start.
type StartQuizRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// StartQuizResponse hands the player their session key and first question.
type StartQuizResponse struct {
	SessionKey string       `json:"sessionKey"`
	UserID     string       `json:"userId"`
	Question   QuestionView `json:"question"`
}

// AnswerQuizRequest is the request body for POST /api/quiz/answer.
type AnswerQuizRequest struct {
	SessionKey  string `json:"sessionKey"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ChoiceIndex int    `json:"choiceIndex"`
}

// AnswerQuizResponse reports one answer's outcome and, when the set is
// complete, the final summary.
type AnswerQuizResponse struct {
	Correct       bool          `json:"correct"`
	CorrectAnswer string        `json:"correctAnswer"`
	ElapsedMs     int64         `json:"elapsedMs"`
	Next          *QuestionView `json:"next,omitempty"`
	Summary       *QuizSummary  `json:"summary,omitempty"`
}

// QuizSummary is the final tally returned on completion or quit.
type QuizSummary struct {
	CorrectCount int   `json:"correctCount"`
	Answered     int   `json:"answered"`
	Total        int   `json:"total"`
	TotalTimeMs  int64 `json:"totalTimeMs"`
	Score        int   `json:"score,omitempty"`
	NewBest      bool  `json:"newBest,omitempty"`
}

// QuitQuizRequest is the request body for POST /api/quiz/quit.
type QuitQuizRequest struct {
	SessionKey string `json:"sessionKey"`
	UserID     string `json:"userId"`
}

// RankingEntry is one row of GET /api/quiz/ranking.
type RankingEntry struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	TotalTimeMs int64  `json:"totalTimeMs"`
}

func handleBuildQuiz(builder QuizBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := builder.Build(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "could not build a quiz")
			return
		}
		writeJSON(w, http.StatusCreated, BuildQuizResponse{Questions: len(questions)})
	}
}

func handleStartQuiz(sets SetSource, builder QuizBuilder, registry *quiz.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartQuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			userID = "anon-" + uuid.NewString()
		}

		questions, err := sets.Latest()
		if errors.Is(err, mountain.ErrNotFound) {
			// No stored set yet; build one on the spot.
			questions, err = builder.Build(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "no quiz available")
			return
		}

		key := registry.Start(userID, questions)
		first, err := registry.Present(key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, StartQuizResponse{
			SessionKey: key,
			UserID:     userID,
			Question:   questionView(first, 1, len(questions)),
		})
	}
}

func handleAnswerQuiz(store Store, registry *quiz.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerQuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := registry.Answer(req.SessionKey, req.UserID, req.ChoiceIndex)
		if errors.Is(err, quiz.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "quiz session not found")
			return
		}
		if quiz.IsNotOwner(err) {
			writeError(w, http.StatusForbidden, "not your quiz session")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := AnswerQuizResponse{
			Correct:       res.Correct,
			CorrectAnswer: res.CorrectAnswer,
			ElapsedMs:     res.ElapsedMs,
		}
		switch {
		case res.Summary != nil:
			s := QuizSummary{
				CorrectCount: res.Summary.CorrectCount,
				Answered:     res.Summary.Answered,
				Total:        res.Summary.Total,
				TotalTimeMs:  res.Summary.TotalTimeMs,
				Score:        res.Summary.Score,
			}
			displayName := strings.TrimSpace(req.DisplayName)
			if displayName == "" {
				displayName = req.UserID
			}
			updated, err := store.UpsertBestScore(r.Context(), mountain.ScoreRecord{
				UserID:      req.UserID,
				DisplayName: displayName,
				Score:       res.Summary.Score,
				TotalTimeMs: res.Summary.TotalTimeMs,
			})
			if err == nil {
				s.NewBest = updated
			}
			resp.Summary = &s
		case res.Next != nil:
			v := questionView(*res.Next, res.NextNumber, res.Total)
			resp.Next = &v
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleQuitQuiz(registry *quiz.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuitQuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		summary, err := registry.Quit(req.SessionKey, req.UserID)
		if errors.Is(err, quiz.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "quiz session not found")
			return
		}
		if quiz.IsNotOwner(err) {
			writeError(w, http.StatusForbidden, "not your quiz session")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// An abandoned run carries no score and is never persisted.
		writeJSON(w, http.StatusOK, QuizSummary{
			CorrectCount: summary.CorrectCount,
			Answered:     summary.Answered,
			Total:        summary.Total,
			TotalTimeMs:  summary.TotalTimeMs,
		})
	}
}

func handleRanking(store Store, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := store.TopScores(r.Context(), pageSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entries := make([]RankingEntry, 0, len(scores))
		for i, s := range scores {
			entries = append(entries, RankingEntry{
				Rank:        i + 1,
				DisplayName: s.DisplayName,
				Score:       s.Score,
				TotalTimeMs: s.TotalTimeMs,
			})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func questionView(q quiz.Question, number, total int) QuestionView {
	return QuestionView{
		Number:   number,
		Total:    total,
		Category: q.Category,
		Prompt:   q.Prompt,
		PhotoURL: q.PhotoURL,
		Choices:  q.Choices,
	}
}
