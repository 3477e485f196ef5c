// Package quiz builds fixed-size multiple-choice question sets from
// aggregated mountain facts plus generated trivia, and tracks per-user play
// sessions through an in-memory registry.
package quiz

// Category is the closed set of question kinds.
type Category string

const (
	CategoryElevation   Category = "elevation-comparison"
	CategoryName        Category = "name-identification"
	CategoryRegion      Category = "region-identification"
	CategoryDescription Category = "description-identification"
	CategoryPhoto       Category = "photo-identification"
	CategoryTrivia      Category = "general-trivia"
)

// ChoiceCount is the fixed number of choices per question.
const ChoiceCount = 4

// Question is one trivia item. CorrectIndex is always a valid index into
// Choices, and Choices are pairwise distinct. PhotoURL is set only for
// photo-identification questions.
type Question struct {
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Prompt       string   `json:"prompt"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}
