// Package repair recovers structured flashcard data from unreliable model
// output. Models return valid JSON, JSON wrapped in prose or code fences,
// or unparseable noise; repair runs a strictly ordered sequence of
// deterministic strategies and returns the first result that passes
// domain validation.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/flashforge/flashforge-api/internal/domain"
)

// ErrUnrepairable is returned when every strategy failed on the raw text.
var ErrUnrepairable = errors.New("model output could not be repaired into flashcards")

// Strategy is one deterministic, side-effect-free attempt to recover a
// flashcard set from raw model text.
type Strategy struct {
	Name  string
	Apply func(raw string) (domain.FlashcardSet, error)
}

// Strategies returns the ordered repair sequence. Each strategy is only
// attempted if the previous one failed.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "strict_parse", Apply: parseStrict},
		{Name: "strip_wrapping", Apply: stripWrapping},
		{Name: "extract_balanced", Apply: extractBalanced},
		{Name: "qa_lines", Apply: parseQALines},
	}
}

// Repair coerces raw model output into a validated flashcard set.
// The result of a successful repair always satisfies the FlashcardSet
// invariants. On total failure the returned error wraps ErrUnrepairable
// and carries the last strategy's detail.
func Repair(raw string) (domain.FlashcardSet, error) {
	var lastName string
	var lastErr error

	for _, strategy := range Strategies() {
		set, err := strategy.Apply(raw)
		if err == nil {
			err = set.Validate()
		}
		if err == nil {
			return set, nil
		}

		lastName = strategy.Name
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrUnrepairable, lastName, lastErr)
}

// cardSchema mirrors the JSON shape the prompt instructs the model to emit.
type cardSchema struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// wrappedSchema accepts the object forms some models produce despite the
// prompt asking for a bare array.
type wrappedSchema struct {
	Cards      []cardSchema `json:"cards"`
	Flashcards []cardSchema `json:"flashcards"`
}

// parseCards decodes a JSON document into a flashcard set. It accepts a
// bare array of cards or an object wrapping the array under "cards" or
// "flashcards".
func parseCards(text string) (domain.FlashcardSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty input")
	}

	var cards []cardSchema
	if err := json.Unmarshal([]byte(text), &cards); err != nil {
		var wrapped wrappedSchema
		if wrapErr := json.Unmarshal([]byte(text), &wrapped); wrapErr != nil {
			return nil, err
		}
		cards = wrapped.Cards
		if len(cards) == 0 {
			cards = wrapped.Flashcards
		}
	}

	set := make(domain.FlashcardSet, 0, len(cards))
	for _, c := range cards {
		set = append(set, domain.Flashcard{
			Question: strings.TrimSpace(c.Question),
			Answer:   strings.TrimSpace(c.Answer),
		})
	}

	return set, nil
}

// parseStrict is the first strategy: treat the raw text as JSON directly.
func parseStrict(raw string) (domain.FlashcardSet, error) {
	return parseCards(raw)
}

var (
	codeFenceRe     = regexp.MustCompile("```[a-zA-Z]*")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// stripWrapping removes code fence markers and trailing commas before
// arrays/objects close, then parses the remainder.
func stripWrapping(raw string) (domain.FlashcardSet, error) {
	cleaned := codeFenceRe.ReplaceAllString(raw, "")
	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")
	return parseCards(cleaned)
}

// extractBalanced scans for the first balanced JSON array or object in the
// text and parses that substring. It tracks string literals and escapes so
// delimiters inside values do not confuse the depth count.
func extractBalanced(raw string) (domain.FlashcardSet, error) {
	start := -1
	var opener, closer byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '[' || raw[i] == '{' {
			start = i
			opener = raw[i]
			closer = '}'
			if opener == '[' {
				closer = ']'
			}
			break
		}
	}
	if start < 0 {
		return nil, errors.New("no JSON delimiter found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				candidate := trailingCommaRe.ReplaceAllString(raw[start:i+1], "$1")
				return parseCards(candidate)
			}
		}
	}

	return nil, errors.New("unbalanced JSON delimiters")
}

var (
	questionLineRe = regexp.MustCompile(`(?i)^\s*q(?:uestion)?\s*\d*\s*[:.)\-]\s*(.+)$`)
	answerLineRe   = regexp.MustCompile(`(?i)^\s*a(?:nswer)?\s*\d*\s*[:.)\-]\s*(.+)$`)
)

// parseQALines is the last-resort strategy: treat "Q:"/"A:" (or
// "Question:"/"Answer:", optionally numbered) prefixed lines as
// question/answer pairs. Unprefixed lines continue the field opened by the
// previous prefix.
func parseQALines(raw string) (domain.FlashcardSet, error) {
	var set domain.FlashcardSet
	var question, answer strings.Builder
	inAnswer := false

	flush := func() {
		q := strings.TrimSpace(question.String())
		a := strings.TrimSpace(answer.String())
		if q != "" && a != "" {
			set = append(set, domain.Flashcard{Question: q, Answer: a})
		}
		question.Reset()
		answer.Reset()
		inAnswer = false
	}

	appendTo := func(b *strings.Builder, text string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := questionLineRe.FindStringSubmatch(line); m != nil {
			flush()
			appendTo(&question, strings.TrimSpace(m[1]))
			continue
		}

		if m := answerLineRe.FindStringSubmatch(line); m != nil {
			inAnswer = true
			appendTo(&answer, strings.TrimSpace(m[1]))
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Continuation of whichever side is open
		if inAnswer {
			appendTo(&answer, trimmed)
		} else if question.Len() > 0 {
			appendTo(&question, trimmed)
		}
	}
	flush()

	if len(set) == 0 {
		return nil, errors.New("no question/answer pattern found")
	}

	return set, nil
}
