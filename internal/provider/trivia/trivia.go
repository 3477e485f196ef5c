// Package trivia generates general mountaineering quiz questions with the
// Gemini API. The provider is strictly best-effort: the quiz builder must
// keep working when generation fails or the API key is absent.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Question is one generated tuple. The declared answer must appear verbatim
// among the options; the quiz builder discards tuples where it does not.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type Generator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("trivia: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("trivia: creating genai client: %w", err)
	}
	return &Generator{client: client, model: model, logger: logger}, nil
}

const promptTemplate = `実践的な登山知識を問う4択クイズを%d問生成してください。

要件:
- 登山の安全、装備選択、気象判断、高山病対策、ルートファインディング、遭難対策など実践的な知識
- 問題文は30文字以内、選択肢は15文字以内の簡潔な文にする
- 各問題は4つの選択肢を持ち、正解は選択肢の中の1つ
- JSON配列形式で出力（他のテキストは含めない）

出力形式:
[
  {"question": "問題文", "options": ["選択肢1", "選択肢2", "選択肢3", "選択肢4"], "answer": "選択肢1"}
]`

// Generate asks the model for count questions and parses the JSON reply.
func (g *Generator) Generate(ctx context.Context, count int) ([]Question, error) {
	prompt := fmt.Sprintf(promptTemplate, count)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("trivia: generating content: %w", err)
	}

	questions, err := parseQuestions(resp.Text())
	if err != nil {
		return nil, err
	}
	g.logger.Info("trivia questions generated", "requested", count, "parsed", len(questions))
	return questions, nil
}

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseQuestions extracts the JSON array from the model output, tolerating a
// markdown code fence around it.
func parseQuestions(text string) ([]Question, error) {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	var questions []Question
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("trivia: parsing model output: %w", err)
	}
	return questions, nil
}
