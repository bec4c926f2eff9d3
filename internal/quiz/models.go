package quiz

import "time"

const (
	TypeSingle = "mcq_single" // exactly one correct option
	TypeMulti  = "mcq_multi"  // two or more correct options
)

type Question struct {
	ID             int      `json:"id" yaml:"id"`
	Prompt         string   `json:"prompt" yaml:"prompt"`
	Options        []string `json:"options" yaml:"options"`
	CorrectOptions []string `json:"correct_options,omitempty" yaml:"correct_options"`
	Note           string   `json:"note,omitempty" yaml:"note,omitempty"`
}

// Arity is the number of correct options; it decides single vs. multi select.
func (q Question) Arity() int { return len(q.CorrectOptions) }

func (q Question) Type() string {
	if q.Arity() == 1 {
		return TypeSingle
	}
	return TypeMulti
}

// HasOption reports whether opt is one of the presented options.
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Public returns a copy safe to show before grading: no answer key, no note.
func (q Question) Public() Question {
	q.Options = append([]string(nil), q.Options...)
	q.CorrectOptions = nil
	q.Note = ""
	return q
}

func (q Question) clone() Question {
	q.Options = append([]string(nil), q.Options...)
	q.CorrectOptions = append([]string(nil), q.CorrectOptions...)
	return q
}

type AttemptInput struct {
	UserID         string
	Score          int
	TotalQuestions int
}

type Attempt struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

type Response struct {
	AttemptID       int64    `json:"attempt_id"`
	QuestionNumber  int      `json:"question_number"`
	SelectedOptions []string `json:"selected_options"`
	IsCorrect       bool     `json:"is_correct"`
}
