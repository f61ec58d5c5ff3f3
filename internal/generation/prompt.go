package generation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// defaultCardCount is how many cards the prompt asks for when the
// builder is not configured otherwise.
const defaultCardCount = 5

// basePromptTemplate instructs the model to return a bare JSON array.
// Models routinely violate these rules anyway; the repair package exists
// for exactly that reason.
const basePromptTemplate = `Create exactly {{.CardCount}} study flashcards about this topic: "{{.Text}}"

You MUST return ONLY a JSON array, EXACTLY in this format:

[
  {"question": "What is X?", "answer": "Explanation..."},
  {"question": "How does Y work?", "answer": "Explanation..."}
]

RULES:
- Each item MUST contain "question" and "answer".
- No numbering (no Q1, A1).
- No nested objects.
- No text before or after the JSON.
- Do NOT wrap in code fences.`

// strictPromptTemplate is used for the single regeneration attempt after
// a repair failure. It repeats the contract in harsher terms.
const strictPromptTemplate = `Your previous output was not valid JSON. Try again.

Create exactly {{.CardCount}} study flashcards about this topic: "{{.Text}}"

Respond with NOTHING except a JSON array of objects with "question" and
"answer" string fields. The first character of your response must be "["
and the last character must be "]". No prose, no markdown, no code fences.`

type promptData struct {
	Text      string
	CardCount int
}

// PromptBuilder renders generation prompts from the job's input text.
type PromptBuilder struct {
	base      *template.Template
	strict    *template.Template
	cardCount int
}

// NewPromptBuilder creates a PromptBuilder asking for cardCount cards per
// request. A non-positive count falls back to the default.
func NewPromptBuilder(cardCount int) *PromptBuilder {
	if cardCount <= 0 {
		cardCount = defaultCardCount
	}

	return &PromptBuilder{
		base:      template.Must(template.New("base").Parse(basePromptTemplate)),
		strict:    template.Must(template.New("strict").Parse(strictPromptTemplate)),
		cardCount: cardCount,
	}
}

// Build renders the standard generation prompt for the given input text.
func (b *PromptBuilder) Build(text string) (string, error) {
	return b.render(b.base, text)
}

// BuildStrict renders the structured-only retry prompt for the given
// input text.
func (b *PromptBuilder) BuildStrict(text string) (string, error) {
	return b.render(b.strict, text)
}

func (b *PromptBuilder) render(tmpl *template.Template, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Text: text, CardCount: b.cardCount}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}
