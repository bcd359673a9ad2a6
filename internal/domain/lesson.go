package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeText           QuestionType = "text"
)

func (t QuestionType) IsValid() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeText
}

// Question is a tagged variant: multiple_choice questions carry an option set
// and the correct answer, text questions carry neither.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	Prompt        string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"`
}

func (q *Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("question %s: empty prompt", q.ID)
	}
	switch q.Type {
	case QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("question %s: multiple choice needs at least two options", q.ID)
		}
		if q.CorrectAnswer == nil {
			return fmt.Errorf("question %s: multiple choice needs a correct answer", q.ID)
		}
		for _, opt := range q.Options {
			if opt == *q.CorrectAnswer {
				return nil
			}
		}
		return fmt.Errorf("question %s: correct answer not among options", q.ID)
	case QuestionTypeText:
		if len(q.Options) > 0 || q.CorrectAnswer != nil {
			return fmt.Errorf("question %s: text question cannot carry options or a correct answer", q.ID)
		}
		return nil
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
}

// Lesson is immutable once created; only provisioning writes it.
type Lesson struct {
	ID          uuid.UUID
	Title       string
	Description string
	Grade       int
	Questions   []Question
	CreatedAt   time.Time
}

func (l *Lesson) Validate() error {
	if l.Title == "" {
		return fmt.Errorf("lesson %s: empty title", l.ID)
	}
	for i := range l.Questions {
		if err := l.Questions[i].Validate(); err != nil {
			return fmt.Errorf("lesson %s: %w", l.ID, err)
		}
	}
	return nil
}
