package finder

import "strings"

// CandidateResult is the outcome of Candidates: the set of sorted-index
// positions whose entry starts with the queried prefix.
type CandidateResult struct {
	Positions []int
	Found     bool
	Probes    int
}

// Candidates returns every position in the index whose entry starts with
// target, in ascending sorted-index order (spec §9 "Candidate-list
// ordering": this fixes the mixed-radix enumeration order downstream).
//
// Because the index is sorted, every entry sharing a prefix is contiguous,
// so this seeds from the first match Find locates and scans outward in
// both directions (spec §4.4 point 2; grounded on
// superthin.py:get_full_id).
func (ix *Index) Candidates(target string, startLength int) CandidateResult {
	res := ix.Find(target, startLength)
	if !res.Found {
		return CandidateResult{Found: false, Probes: res.Probes}
	}

	length := ix.Len()

	// Backward matches are discovered in descending index order; reverse
	// them so the final slice stays ascending throughout.
	backward := make([]int, 0, 4)
	for i := res.Pos - 1; i >= 0 && strings.HasPrefix(ix.entries[i], target); i-- {
		backward = append(backward, i)
	}
	for l, r := 0, len(backward)-1; l < r; l, r = l+1, r-1 {
		backward[l], backward[r] = backward[r], backward[l]
	}

	positions := make([]int, 0, len(backward)+1)
	positions = append(positions, backward...)
	positions = append(positions, res.Pos)
	for i := res.Pos + 1; i < length && strings.HasPrefix(ix.entries[i], target); i++ {
		positions = append(positions, i)
	}

	return CandidateResult{Positions: positions, Found: true, Probes: res.Probes}
}
