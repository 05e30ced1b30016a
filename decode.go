package superthin

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hiddenvs/superthin/enumerate"
	"github.com/hiddenvs/superthin/finder"
)

// decodeStartLength is the fixed interpolation-search seed width the
// decoder uses when resolving prefixes against the local mempool,
// independent of whatever start length the sender's encoder chose (spec
// §4.4; grounded on superthin.py:get_full_id, which hardcodes 5).
const decodeStartLength = 5

// DecodeStats reports per-call diagnostics for a Decode invocation.
type DecodeStats struct {
	Unique            int
	Ambiguous         int
	Missing           int
	CombinationsTried int
	FinderCalls       int
	FinderProbes      int
}

// Decode reconstructs the sender's original mempool order from prefixes,
// using local as the receiver's candidate pool, and accepts the
// reconstruction only if it matches commit (spec §4.4).
//
// ctx may carry a deadline: it is checked between per-position candidate
// resolutions and before every 64th combination attempt, so a caller can bound the
// decoder's worst-case latency without bounding AmbiguityBudget itself.
//
// Grounded on moneywagon/superthin.py:get_full_id, decode_superthin_chunk,
// and decode_superthin.
func Decode(ctx context.Context, prefixes []Prefix, local []Txid, commit Commitment, opts ...Option) ([]Txid, DecodeStats, error) {
	cfg := resolveConfig(opts)
	stats := DecodeStats{}

	if bad, err := validateMempool(local); err != nil {
		return nil, stats, fmt.Errorf("superthin: invalid local mempool entry %q: %w", string(bad), err)
	}
	for _, p := range prefixes {
		if !p.Valid() {
			return nil, stats, fmt.Errorf("superthin: invalid prefix %q", string(p))
		}
	}

	n := len(prefixes)
	if n == 0 {
		if commitment(nil, cfg.HashDomain) == commit {
			return []Txid{}, stats, nil
		}
		return nil, stats, &DecodeError{Kind: ErrHashMismatch}
	}

	sorted := make([]string, len(local))
	for i, t := range local {
		sorted[i] = string(t)
	}
	sort.Strings(sorted)

	idx := finder.New(sorted, cfg.OscillationProbeCap)
	candResults := make([]finder.CandidateResult, n)

	resolveOne := func(i int) error {
		candResults[i] = idx.Candidates(string(prefixes[i]), decodeStartLength)
		return nil
	}

	if cfg.Parallelism > 1 {
		g := new(errgroup.Group)
		g.SetLimit(cfg.Parallelism)
		for i := range prefixes {
			i := i
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return resolveOne(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}
	} else {
		for i := range prefixes {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			_ = resolveOne(i)
		}
	}

	return decodeFromCandidates(ctx, prefixes, sorted, candResults, commit, cfg)
}

// DecodeCandidates reconstructs the sender's original order the same way
// Decode does, but starting from candidate lookups the caller already
// performed, rather than resolving each prefix against a freshly built
// finder.Index. sortedLocal must be the ascending-sorted hex view of the
// same local mempool candResults was resolved against, and candResults
// must be parallel to prefixes.
//
// This is the seam package reconcile uses to keep its own finder.Index and
// candidate-resolution cache warm across calls against an unchanged local
// mempool, instead of paying for a fresh interpolation search on every
// Decode (spec §5's concurrency/latency notes; see reconcile.Reconciler).
func DecodeCandidates(ctx context.Context, prefixes []Prefix, sortedLocal []string, candResults []finder.CandidateResult, commit Commitment, opts ...Option) ([]Txid, DecodeStats, error) {
	if len(candResults) != len(prefixes) {
		return nil, DecodeStats{}, fmt.Errorf("superthin: %d candidate result(s) for %d prefix(es)", len(candResults), len(prefixes))
	}
	cfg := resolveConfig(opts)
	return decodeFromCandidates(ctx, prefixes, sortedLocal, candResults, commit, cfg)
}

func decodeFromCandidates(ctx context.Context, prefixes []Prefix, sorted []string, candResults []finder.CandidateResult, commit Commitment, cfg Config) ([]Txid, DecodeStats, error) {
	stats := DecodeStats{}
	n := len(prefixes)
	if n == 0 {
		if commitment(nil, cfg.HashDomain) == commit {
			return []Txid{}, stats, nil
		}
		return nil, stats, &DecodeError{Kind: ErrHashMismatch}
	}
	full := make([]Txid, n)
	var missingPositions []int
	var missingPrefixes []Prefix
	var ambiguousPositions []int
	candidateTxids := make([][]Txid, n)

	for i, cr := range candResults {
		stats.FinderCalls++
		stats.FinderProbes += cr.Probes

		switch {
		case !cr.Found:
			stats.Missing++
			missingPositions = append(missingPositions, i)
			missingPrefixes = append(missingPrefixes, prefixes[i])
		case len(cr.Positions) == 1:
			stats.Unique++
			full[i] = Txid(sorted[cr.Positions[0]])
		default:
			stats.Ambiguous++
			ambiguousPositions = append(ambiguousPositions, i)
			cands := make([]Txid, len(cr.Positions))
			for j, p := range cr.Positions {
				cands[j] = Txid(sorted[p])
			}
			candidateTxids[i] = cands
		}
	}

	if len(missingPositions) > 0 {
		return nil, stats, &DecodeError{
			Kind:             ErrMissingTransactions,
			MissingPositions: missingPositions,
			MissingPrefixes:  missingPrefixes,
		}
	}

	if len(ambiguousPositions) == 0 {
		if commitment(full, cfg.HashDomain) == commit {
			return full, stats, nil
		}
		stats.CombinationsTried = 1
		return nil, stats, &DecodeError{Kind: ErrHashMismatch, CombinationsTried: 1}
	}

	lists := make([][]Txid, len(ambiguousPositions))
	for j, pos := range ambiguousPositions {
		lists[j] = candidateTxids[pos]
	}
	enumr := enumerate.New(lists)
	if enumr.Total() > cfg.AmbiguityBudget {
		return nil, stats, &DecodeError{Kind: ErrTooAmbiguous}
	}

	for i := 0; i < enumr.Total(); i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		combo, ok := enumr.Combination(i)
		if !ok {
			break
		}
		for j, pos := range ambiguousPositions {
			full[pos] = combo[j]
		}
		stats.CombinationsTried++
		if commitment(full, cfg.HashDomain) == commit {
			return append([]Txid(nil), full...), stats, nil
		}
	}

	return nil, stats, &DecodeError{Kind: ErrHashMismatch, CombinationsTried: stats.CombinationsTried}
}
