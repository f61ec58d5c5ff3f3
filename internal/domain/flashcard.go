package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Flashcard-specific validation errors
var (
	// ErrEmptyQuestion is returned when a flashcard question is empty.
	ErrEmptyQuestion = errors.New("flashcard question cannot be empty")

	// ErrEmptyAnswer is returned when a flashcard answer is empty.
	ErrEmptyAnswer = errors.New("flashcard answer cannot be empty")

	// ErrEmptyFlashcardSet is returned when a flashcard set contains no cards.
	ErrEmptyFlashcardSet = errors.New("flashcard set cannot be empty")
)

// Flashcard represents a single question/answer pair produced by a
// generation job.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks that both sides of the card carry content.
// Whitespace-only fields are treated as empty.
func (f Flashcard) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return ErrEmptyQuestion
	}
	if strings.TrimSpace(f.Answer) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// FlashcardSet is the ordered collection of cards a completed job yields.
// A valid set is never empty.
type FlashcardSet []Flashcard

// Validate checks the set-level invariant and every card in the set.
func (s FlashcardSet) Validate() error {
	if len(s) == 0 {
		return ErrEmptyFlashcardSet
	}
	for i, card := range s {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
	}
	return nil
}
