// Package finder implements the interpolation-search index finder at the
// core of the superthin codec (spec §4.1, §4.2): given a sorted array of
// equal-length hex strings and a target prefix, it locates the index of
// the array entry the prefix identifies in expected-constant time, relying
// on the near-uniform distribution of SHA-256-derived hex digits.
//
// The algorithm and its tie-break order are grounded directly on
// moneywagon's superthin.py (find_index_fast / get_unique / get_full_id),
// since spec.md's own prose underspecifies a few steps; see the
// superthin/DESIGN.md Open Questions section.
package finder

import (
	"math"
	"strings"
)

// Index is a read-only view over a sorted slice of equal-length lowercase
// hex strings, supporting interpolation-search lookups.
type Index struct {
	entries             []string
	oscillationProbeCap int
}

// New builds an Index over sorted, which must already be in ascending
// lexicographic order. oscillationProbeCap bounds the bidirectional linear
// sweep used once interpolation search starts oscillating (spec §4.2); a
// value <= 0 uses the spec's default of 400.
func New(sorted []string, oscillationProbeCap int) *Index {
	if oscillationProbeCap <= 0 {
		oscillationProbeCap = 400
	}
	return &Index{entries: sorted, oscillationProbeCap: oscillationProbeCap}
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int { return len(ix.entries) }

// Entry returns the entry at position i.
func (ix *Index) Entry(i int) string { return ix.entries[i] }

// StartLength computes the size prelude (spec §4.1): the smallest k >= 1
// such that 16^k >= n, so an exact power of 16 takes the smaller width
// (n=16 gives 1, n=256 gives 2). See DESIGN.md.
func StartLength(n int) int {
	if n <= 0 {
		return 1
	}
	k := 1
	pow := uint64(16)
	for uint64(n) > pow {
		k++
		pow *= 16
	}
	return k
}

// Result is the outcome of a Find call, including diagnostic counters for
// a caller-side EncodeStats/DecodeStats accumulation (spec §9's "per-call
// statistics record" replacing the original's global timing counter).
type Result struct {
	Pos        int
	Found      bool
	Probes     int  // interpolation-loop iterations plus any sweep probes
	Oscillated bool // whether oscillation detection/sweep was triggered
}

// Find locates the index of the entry that target is a prefix of, using
// interpolation search seeded by the first startLength+3 hex digits (spec
// §4.2). target may be shorter than the index's entries (a partial
// prefix); it must not be longer.
func (ix *Index) Find(target string, startLength int) Result {
	length := len(ix.entries)
	if length == 0 {
		return Result{Found: false}
	}

	w := startLength + 3
	if len(target) < w {
		w = len(target)
	}
	if w <= 0 {
		return Result{Found: false}
	}

	targetValue := float64(parseHexDigits(target[:w]))
	denom := pow16(w)
	guess := clamp(int(math.Round(targetValue/denom*float64(length))), 0, length)

	visited := make([]int, 0, 8)
	seen := make(map[int]struct{}, 8)

	outerCap := outerIterationCap(length)
	for iter := 0; iter < outerCap; iter++ {
		if guess+1 >= length {
			guess = length - 1
		}

		if _, dup := seen[guess]; dup {
			mid := (visited[len(visited)-1] + guess) / 2
			pos, ok, probes := ix.sweep(mid, target)
			return Result{Pos: pos, Found: ok, Probes: iter + probes, Oscillated: true}
		}
		seen[guess] = struct{}{}
		visited = append(visited, guess)

		entry := ix.entries[guess]
		if strings.HasPrefix(entry, target) {
			return Result{Pos: guess, Found: true, Probes: iter + 1}
		}

		foundValue := float64(parseHexDigits(padHexKey(entry, w)))
		offBy := foundValue - targetValue
		offByPct := offBy / denom

		var adjust int
		if offBy < 0 {
			adjust = int(math.Floor(offByPct * float64(length)))
		} else {
			adjust = int(math.Ceil(offByPct * float64(length)))
		}
		guess = clamp(guess-adjust, 0, length)
	}

	// Outer cap exhausted without ever revisiting a guess: fall back to a
	// bounded sweep from the last guess rather than looping unboundedly
	// (spec §9 open question mitigation).
	pos, ok, probes := ix.sweep(guess, target)
	return Result{Pos: pos, Found: ok, Probes: outerCap + probes, Oscillated: true}
}

// sweep performs the bidirectional linear sweep outward from mid, in the
// order spec §4.2 prescribes: offsets 0, +1, -1, +2, -2, ..., capped at
// the index's oscillationProbeCap.
func (ix *Index) sweep(mid int, target string) (pos int, ok bool, probes int) {
	length := len(ix.entries)
	try := func(i int) bool {
		return i >= 0 && i < length && strings.HasPrefix(ix.entries[i], target)
	}

	if try(mid) {
		return mid, true, 1
	}
	probes = 1

	for d := 1; probes < ix.oscillationProbeCap; d++ {
		if try(mid + d) {
			return mid + d, true, probes + 1
		}
		probes++
		if probes >= ix.oscillationProbeCap {
			break
		}
		if try(mid - d) {
			return mid - d, true, probes + 1
		}
		probes++
	}
	return 0, false, probes
}

// outerIterationCap bounds the interpolation loop itself, independent of
// oscillation detection, per spec §9's suggested mitigation:
// ceil(log2(L)) + 64.
func outerIterationCap(length int) int {
	if length < 2 {
		length = 2
	}
	return int(math.Ceil(math.Log2(float64(length)))) + 64
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pow16 returns 16^w as a float64. Powers of 16 are powers of two, so this
// is exact (no precision loss) for any w that fits in a float64 exponent.
func pow16(w int) float64 {
	return math.Ldexp(1, 4*w)
}

// padHexKey returns the first w hex characters of s, padding with 'f' if s
// is shorter than w (spec §4.2: "treat shorter as padded with f").
func padHexKey(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	return s + strings.Repeat("f", w-len(s))
}

// parseHexDigits parses up to 16 leading hex characters of s into a
// uint64. Sixteen hex digits (64 bits) comfortably covers the
// interpolation key width (startLength+3) for any mempool size this codec
// targets (spec's tested upper bound is 10^6 entries, giving
// startLength <= 6).
func parseHexDigits(s string) uint64 {
	if len(s) > 16 {
		s = s[:16]
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		v = v<<4 | uint64(hexNibble(s[i]))
	}
	return v
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
