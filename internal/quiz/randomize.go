package quiz

import "math/rand"

// Randomize returns a shuffled deep copy of qs: question order and each
// question's option order are permuted independently. The package-level
// generator is seeded by the runtime, so orderings are not reproducible.
func Randomize(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		c := q.clone()
		rand.Shuffle(len(c.Options), func(a, b int) { c.Options[a], c.Options[b] = c.Options[b], c.Options[a] })
		out[i] = c
	}
	rand.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
	return out
}
