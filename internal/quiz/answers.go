package quiz

// AnswerStore maps question id to the currently selected options.
// Entries are never empty: removing the last selection deletes the entry.
type AnswerStore struct {
	questions map[int]Question
	selected  map[int][]string
	order     []int // first-answer order of the ids in selected
}

type Entry struct {
	QuestionID int
	Selected   []string
}

func NewAnswerStore(qs []Question) *AnswerStore {
	m := make(map[int]Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return &AnswerStore{questions: m, selected: map[int][]string{}}
}

// Toggle applies one click on option. Single-correct questions replace the
// selection; multi-correct questions add or remove option. Unknown question
// ids and options the question does not offer are ignored.
func (s *AnswerStore) Toggle(questionID int, option string) bool {
	q, ok := s.questions[questionID]
	if !ok || !q.HasOption(option) {
		return false
	}
	cur, answered := s.selected[questionID]

	if q.Arity() == 1 {
		if answered && len(cur) == 1 && cur[0] == option {
			return false
		}
		s.set(questionID, []string{option})
		return true
	}

	for i, o := range cur {
		if o == option {
			next := make([]string, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			if len(next) == 0 {
				s.remove(questionID)
			} else {
				s.selected[questionID] = next
			}
			return true
		}
	}
	next := make([]string, 0, len(cur)+1)
	next = append(next, cur...)
	s.set(questionID, append(next, option))
	return true
}

func (s *AnswerStore) Get(questionID int) ([]string, bool) {
	sel, ok := s.selected[questionID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), sel...), true
}

func (s *AnswerStore) Size() int { return len(s.selected) }

// Entries lists answered questions in the order they were first answered.
func (s *AnswerStore) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Entry{QuestionID: id, Selected: append([]string(nil), s.selected[id]...)})
	}
	return out
}

func (s *AnswerStore) set(id int, sel []string) {
	if _, ok := s.selected[id]; !ok {
		s.order = append(s.order, id)
	}
	s.selected[id] = sel
}

func (s *AnswerStore) remove(id int) {
	delete(s.selected, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
