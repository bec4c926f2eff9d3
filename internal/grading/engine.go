package grading

import (
	"context"
	"errors"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type      string
	AnswerKey []string
}

// Result is the outcome of grading a single question response.
type Result struct {
	Correct  bool
	Feedback []string // optional notes
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, selected []string) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, selected []string) (Result, error)
}

var ErrUnknownType = errors.New("no strategy for question type")

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, selected []string) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, ErrUnknownType
	}
	return s.Grade(ctx, q, selected)
}

type Option func(map[string]Strategy)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(typ string, s Strategy) Option {
	return func(m map[string]Strategy) { m[typ] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	m := map[string]Strategy{
		"mcq_single": singleStrategy{},
		"mcq_multi":  exactSetStrategy{},
	}
	for _, o := range opts {
		o(m)
	}
	return &defaultGrader{strategies: m}
}

// --- Strategies ---

type singleStrategy struct{}

func (singleStrategy) Grade(_ context.Context, q Q, selected []string) (Result, error) {
	if len(q.AnswerKey) != 1 {
		return Result{}, errors.New("single-answer question needs exactly one key")
	}
	if len(selected) != 1 {
		return Result{}, nil
	}
	return Result{Correct: selected[0] == q.AnswerKey[0]}, nil
}

// exactSetStrategy awards the question only when the selection equals the key
// as a set. Presentation and click order are irrelevant.
type exactSetStrategy struct{}

func (exactSetStrategy) Grade(_ context.Context, q Q, selected []string) (Result, error) {
	if len(q.AnswerKey) == 0 {
		return Result{}, errors.New("empty answer key")
	}
	res := Result{Correct: setEqual(toSet(q.AnswerKey), toSet(selected))}
	if !res.Correct && len(selected) < len(q.AnswerKey) {
		res.Feedback = append(res.Feedback, "incomplete selection")
	}
	return res, nil
}

// helpers

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
