package domain

import (
	"errors"
	"testing"
)

func TestFlashcardValidate(t *testing.T) {
	t.Parallel()

	valid := Flashcard{Question: "What is Go?", Answer: "A language"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid card, got %v", err)
	}

	empty := Flashcard{Question: "", Answer: "A language"}
	if err := empty.Validate(); err != ErrEmptyQuestion {
		t.Errorf("Expected %v, got %v", ErrEmptyQuestion, err)
	}

	// Whitespace-only fields count as empty
	blank := Flashcard{Question: "What is Go?", Answer: "   \n"}
	if err := blank.Validate(); err != ErrEmptyAnswer {
		t.Errorf("Expected %v, got %v", ErrEmptyAnswer, err)
	}
}

func TestFlashcardSetValidate(t *testing.T) {
	t.Parallel()

	var empty FlashcardSet
	if err := empty.Validate(); err != ErrEmptyFlashcardSet {
		t.Errorf("Expected %v, got %v", ErrEmptyFlashcardSet, err)
	}

	good := FlashcardSet{
		{Question: "What is a goroutine?", Answer: "A lightweight thread"},
		{Question: "What is a channel?", Answer: "A typed conduit"},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Expected valid set, got %v", err)
	}

	bad := FlashcardSet{
		{Question: "What is a goroutine?", Answer: "A lightweight thread"},
		{Question: "", Answer: "orphan answer"},
	}
	err := bad.Validate()
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected wrapped %v, got %v", ErrEmptyQuestion, err)
	}
}

func TestJobErrorError(t *testing.T) {
	t.Parallel()

	jobErr := NewJobError(ErrorKindTransport, "connection refused")
	if jobErr.Error() != "transport: connection refused" {
		t.Errorf("Unexpected error string: %s", jobErr.Error())
	}
}
