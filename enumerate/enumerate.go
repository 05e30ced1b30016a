// Package enumerate implements the combination enumerator (spec §4.5):
// given a list of per-position candidate lists, it produces the i-th
// combination in deterministic mixed-radix order, candidate list 0 varying
// fastest. This is what lets the decoder try every assignment of ambiguous
// ("dupe") positions until one reconstructs the commitment digest.
//
// Grounded on moneywagon/superthin.py:all_combinations, restructured to
// compute the tuple directly rather than via the original's
// reverse-then-pop indirection (same mixed-radix math, clearer Go).
package enumerate

// Enumerator enumerates the cartesian product of a list of candidate
// lists in mixed-radix order.
type Enumerator[T any] struct {
	candidates [][]T
	total      int
}

// New builds an Enumerator over candidates. Any empty candidate list makes
// the total product zero (callers should not reach this case: the decoder
// only ever enumerates over positions it has already classified as
// ambiguous, i.e. with at least two candidates).
func New[T any](candidates [][]T) *Enumerator[T] {
	total := 1
	for _, c := range candidates {
		if len(c) == 0 {
			total = 0
			break
		}
		total *= len(c)
	}
	return &Enumerator[T]{candidates: candidates, total: total}
}

// Total returns the product of candidate-list lengths: the number of
// distinct combinations.
func (e *Enumerator[T]) Total() int { return e.total }

// Combination returns the i-th combination: candidates[0][i % len(c0)],
// candidates[1][(i / len(c0)) % len(c1)], and so on. ok is false once i is
// at or beyond Total (exhausted).
func (e *Enumerator[T]) Combination(i int) (combo []T, ok bool) {
	if i < 0 || i >= e.total {
		return nil, false
	}
	combo = make([]T, len(e.candidates))
	rem := i
	for pos, c := range e.candidates {
		idx := rem % len(c)
		rem /= len(c)
		combo[pos] = c[idx]
	}
	return combo, true
}
