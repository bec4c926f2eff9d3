package quiz

import (
	"context"
	"math"
	"sort"

	"github.com/mind-engage/proctored-quiz/internal/grading"
)

// Correctness is the set of question ids answered exactly right.
type Correctness map[int]struct{}

func (c Correctness) Has(id int) bool {
	_, ok := c[id]
	return ok
}

func (c Correctness) IDs() []int {
	out := make([]int, 0, len(c))
	for id := range c {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

type Stats struct {
	Answered   int `json:"answered"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

var defaultGrader = grading.NewDefaultGrader()

// Evaluate derives correctness and stats from the session questions and the
// current answers. It has no side effects.
func Evaluate(qs []Question, answers *AnswerStore) (Correctness, Stats) {
	return EvaluateWith(defaultGrader, qs, answers)
}

func EvaluateWith(g grading.Grader, qs []Question, answers *AnswerStore) (Correctness, Stats) {
	ctx := context.Background()
	correct := Correctness{}
	for _, q := range qs {
		sel, ok := answers.Get(q.ID)
		if !ok {
			continue
		}
		res, err := g.Grade(ctx, grading.Q{Type: q.Type(), AnswerKey: q.CorrectOptions}, sel)
		if err != nil || !res.Correct {
			continue
		}
		correct[q.ID] = struct{}{}
	}
	st := Stats{
		Answered: answers.Size(),
		Correct:  len(correct),
		Total:    len(qs),
	}
	st.Incorrect = st.Answered - st.Correct
	if st.Total > 0 {
		st.Percentage = int(math.Round(float64(st.Correct) * 100 / float64(st.Total)))
	}
	return correct, st
}
