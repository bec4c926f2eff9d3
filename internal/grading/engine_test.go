package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	g := NewDefaultGrader()
	tests := []struct {
		name     string
		q        Q
		selected []string
		correct  bool
	}{
		{name: "single correct", q: Q{Type: "mcq_single", AnswerKey: []string{"B"}}, selected: []string{"B"}, correct: true},
		{name: "single wrong", q: Q{Type: "mcq_single", AnswerKey: []string{"B"}}, selected: []string{"A"}},
		{name: "single empty", q: Q{Type: "mcq_single", AnswerKey: []string{"B"}}},
		{name: "multi exact", q: Q{Type: "mcq_multi", AnswerKey: []string{"A", "D"}}, selected: []string{"A", "D"}, correct: true},
		{name: "multi reversed", q: Q{Type: "mcq_multi", AnswerKey: []string{"A", "D"}}, selected: []string{"D", "A"}, correct: true},
		{name: "multi missing one", q: Q{Type: "mcq_multi", AnswerKey: []string{"A", "D"}}, selected: []string{"A"}},
		{name: "multi extra one", q: Q{Type: "mcq_multi", AnswerKey: []string{"A", "D"}}, selected: []string{"A", "D", "B"}},
		{name: "multi same size wrong", q: Q{Type: "mcq_multi", AnswerKey: []string{"A", "D"}}, selected: []string{"A", "B"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(context.Background(), tc.q, tc.selected)
			require.NoError(t, err)
			assert.Equal(t, tc.correct, res.Correct)
		})
	}
}

func TestGrade_UnknownType(t *testing.T) {
	_, err := NewDefaultGrader().Grade(context.Background(), Q{Type: "essay"}, nil)
	require.ErrorIs(t, err, ErrUnknownType)
}

type alwaysCorrect struct{}

func (alwaysCorrect) Grade(context.Context, Q, []string) (Result, error) {
	return Result{Correct: true}, nil
}

func TestGrade_WithStrategy(t *testing.T) {
	g := NewDefaultGrader(WithStrategy("essay", alwaysCorrect{}))
	res, err := g.Grade(context.Background(), Q{Type: "essay"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Correct)
}
