package superthin

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hiddenvs/superthin/finder"
)

// EncodeStats reports per-call diagnostics for an Encode invocation: the
// original's module-level index_timer is replaced by per-call counters the
// caller owns, not shared mutable state. No elapsed time is recorded.
type EncodeStats struct {
	// StartLength is the size prelude derived from the mempool size
	// (spec §4.1).
	StartLength int
	// FinderCalls is the number of Index.Find invocations performed, one
	// per txid.
	FinderCalls int
	// FinderProbes sums Find's reported probe counts across every call.
	FinderProbes int
	// OscillationCount is how many of those calls fell back to the
	// bidirectional sweep.
	OscillationCount int
	// AverageBytesPerTxid is the mean encoded prefix length, in bytes.
	AverageBytesPerTxid float64
	// TotalWeightBytes approximates the wire weight of the encoded
	// message: the sum of prefix lengths, one length-prefix byte per
	// entry, plus the commitment digest (spec §6).
	TotalWeightBytes int
}

// EncodeResult is the output of Encode: one minimal unique prefix per input
// txid, in the caller's original order, plus the commitment digest that
// gates decode-side acceptance.
type EncodeResult struct {
	Prefixes   []Prefix
	Commitment Commitment
	Stats      EncodeStats
}

// Encode computes a minimal-unique-prefix encoding of mempool (spec §4.3),
// one Prefix per input txid in the caller's original order, together with
// a commitment digest computed over that same original order (spec §4.3's
// point that the digest is order-sensitive and taken before sorting).
//
// Grounded on moneywagon/superthin.py:encode_mempool and get_unique.
func Encode(mempool []Txid, opts ...Option) (*EncodeResult, error) {
	cfg := resolveConfig(opts)

	if bad, err := validateMempool(mempool); err != nil {
		return nil, &EncodeError{Kind: err, Txid: bad}
	}

	commit := commitment(mempool, cfg.HashDomain)

	n := len(mempool)
	if n == 0 {
		return &EncodeResult{Prefixes: []Prefix{}, Commitment: commit}, nil
	}

	sorted := make([]string, n)
	for i, t := range mempool {
		sorted[i] = string(t)
	}
	sort.Strings(sorted)

	idx := finder.New(sorted, cfg.OscillationProbeCap)
	startLength := finder.StartLength(n)

	prefixes := make([]Prefix, n)
	results := make([]finder.Result, n)

	computeOne := func(i int) error {
		t := mempool[i]
		res := idx.Find(string(t), startLength)
		if !res.Found {
			// t is drawn from mempool itself, so its sorted-view entry
			// must exist; reaching here means the finder's own
			// invariant broke, not a caller error.
			return &EncodeError{Kind: fmt.Errorf("superthin: txid not found in its own sorted view"), Txid: t}
		}
		results[i] = res

		pos := res.Pos
		var before, after string
		if pos > 0 {
			before = sorted[pos-1]
		}
		if pos < n-1 {
			after = sorted[pos+1]
		}

		s := string(t)
		k := startLength
		for k < len(s) && (sharesPrefix(s, before, k) || sharesPrefix(s, after, k)) {
			k++
			if k > maxPrefixGrowth {
				return &EncodeError{Kind: ErrPrefixGrowthExceeded, Txid: t}
			}
		}

		end := k + cfg.ExtraBytes
		if end > len(s) {
			end = len(s)
		}
		prefixes[i] = Prefix(s[:end])
		return nil
	}

	if cfg.Parallelism > 1 {
		g := new(errgroup.Group)
		g.SetLimit(cfg.Parallelism)
		for i := range mempool {
			i := i
			g.Go(func() error { return computeOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range mempool {
			if err := computeOne(i); err != nil {
				return nil, err
			}
		}
	}

	stats := EncodeStats{StartLength: startLength}
	totalPrefixBytes := 0
	for i, res := range results {
		stats.FinderCalls++
		stats.FinderProbes += res.Probes
		if res.Oscillated {
			stats.OscillationCount++
		}
		totalPrefixBytes += len(prefixes[i])
	}
	stats.AverageBytesPerTxid = float64(totalPrefixBytes) / float64(n)
	stats.TotalWeightBytes = totalPrefixBytes + n + len(commit)

	return &EncodeResult{Prefixes: prefixes, Commitment: commit, Stats: stats}, nil
}

// sharesPrefix reports whether s and other agree on their first k
// characters. An empty other (no neighbor on that side, e.g. the
// lexicographically first or last entry) never forces growth.
func sharesPrefix(s, other string, k int) bool {
	if other == "" || len(s) < k || len(other) < k {
		return false
	}
	return s[:k] == other[:k]
}
