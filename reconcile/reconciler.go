// Package reconcile wraps the superthin codec in a long-lived service: a
// cache of recent candidate resolutions, structured logging, metrics, a
// rate limiter on inbound calls, and a retry path for the one case the
// pure codec can't resolve on its own — missing transactions that need to
// be fetched from elsewhere and decoded again.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hiddenvs/superthin"
	"github.com/hiddenvs/superthin/finder"
)

// Reconciler runs Decode (and Retry) against a local mempool that's
// expected to be reused across many inbound reconciliation messages, the
// way a long-running peer would. It keeps its own finder.Index and
// candidate-resolution cache warm across calls, and feeds already-resolved
// candidates into superthin.DecodeCandidates instead of letting every call
// pay for a fresh interpolation search.
type Reconciler struct {
	cfg     Config
	log     logrus.FieldLogger
	limiter *rate.Limiter

	idx         *finder.Index
	sortedLocal []string
	cache       *lru.Cache[string, finder.CandidateResult]

	decodeTotal       *prometheus.CounterVec
	ambiguousPerCall  prometheus.Histogram
	combinationsTried prometheus.Histogram
}

// New builds a Reconciler. log may be nil, in which case a standard
// logrus.New() logger is used (matching grafana-k6's pattern of accepting
// a logrus.FieldLogger and falling back to a default instance).
func New(cfg Config, log logrus.FieldLogger) (*Reconciler, error) {
	if log == nil {
		log = logrus.New()
	}

	cache, err := lru.New[string, finder.CandidateResult](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("reconcile: build cache: %w", err)
	}

	r := &Reconciler{
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		cache:   cache,
		decodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "superthin",
			Subsystem: "reconcile",
			Name:      "decode_total",
			Help:      "Outcomes of Reconciler.Decode calls, by result kind.",
		}, []string{"outcome"}),
		ambiguousPerCall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "superthin",
			Subsystem: "reconcile",
			Name:      "decode_ambiguous_positions",
			Help:      "Number of ambiguous positions per Decode call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		combinationsTried: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "superthin",
			Subsystem: "reconcile",
			Name:      "decode_combinations_tried",
			Help:      "Number of candidate combinations tried per Decode call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	return r, nil
}

// Registry registers the Reconciler's metrics on reg, mirroring the
// prometheus.MustRegister call sites elsewhere in the pack
// (grafana-k6/api/prometheus).
func (r *Reconciler) Registry(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.decodeTotal, r.ambiguousPerCall, r.combinationsTried} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("reconcile: register metric: %w", err)
		}
	}
	return nil
}

// SetLocal rebuilds the finder index over local and purges the
// candidate-resolution cache, but only if local's sorted view actually
// differs from what the Reconciler already has warm: inserting or
// removing even one entry shifts every other entry's sorted position, so
// a cached position can only be trusted against the exact sorted view it
// was resolved against.
func (r *Reconciler) SetLocal(local []superthin.Txid) {
	sorted := make([]string, len(local))
	for i, t := range local {
		sorted[i] = string(t)
	}
	sort.Strings(sorted)

	if r.idx != nil && equalStrings(sorted, r.sortedLocal) {
		return
	}

	r.idx = finder.New(sorted, r.cfg.OscillationProbeCap)
	r.sortedLocal = sorted
	r.cache.Purge()
}

// Resolve returns the finder's candidate classification for prefix against
// the current local mempool, consulting and populating the LRU cache so a
// repeated Decode call against an unchanged local mempool doesn't re-run
// the interpolation search for a prefix it already resolved.
func (r *Reconciler) Resolve(prefix superthin.Prefix) finder.CandidateResult {
	if cr, ok := r.cache.Get(string(prefix)); ok {
		return cr
	}
	cr := r.idx.Candidates(string(prefix), 5)
	r.cache.Add(string(prefix), cr)
	return cr
}

func (r *Reconciler) options() []superthin.Option {
	return []superthin.Option{
		superthin.WithExtraBytes(r.cfg.ExtraBytes),
		superthin.WithAmbiguityBudget(r.cfg.AmbiguityBudget),
		superthin.WithOscillationProbeCap(r.cfg.OscillationProbeCap),
	}
}

// Decode rate-limits and times out a single reconciliation attempt, then
// resolves every prefix through the Reconciler's own cache-backed index
// and hands the results to superthin.DecodeCandidates for classification,
// ambiguity resolution, and commitment checking. One structured log entry
// and a metrics observation are recorded for the outcome.
func (r *Reconciler) Decode(ctx context.Context, prefixes []superthin.Prefix, local []superthin.Txid, commit superthin.Commitment) ([]superthin.Txid, superthin.DecodeStats, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, superthin.DecodeStats{}, fmt.Errorf("reconcile: rate limit: %w", err)
	}

	r.SetLocal(local)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.DecodeTimeout)
	defer cancel()

	candResults := make([]finder.CandidateResult, len(prefixes))
	for i, p := range prefixes {
		candResults[i] = r.Resolve(p)
	}

	start := time.Now()
	got, stats, err := superthin.DecodeCandidates(ctx, prefixes, r.sortedLocal, candResults, commit, r.options()...)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = outcomeLabel(err)
	}
	r.decodeTotal.WithLabelValues(outcome).Inc()
	r.ambiguousPerCall.Observe(float64(stats.Ambiguous))
	r.combinationsTried.Observe(float64(stats.CombinationsTried))

	r.log.WithFields(logrus.Fields{
		"positions":          len(prefixes),
		"unique":             stats.Unique,
		"ambiguous":          stats.Ambiguous,
		"missing":            stats.Missing,
		"combinations_tried": stats.CombinationsTried,
		"outcome":            outcome,
		"elapsed_ms":         elapsed.Milliseconds(),
	}).Debug("decode")

	return got, stats, err
}

// Retry merges fetched into local and re-decodes, for the
// MissingTransactions recovery path spec §7 describes ("recoverable only
// by fetching those txids from the sender, external"). Merging necessarily
// invalidates the candidate cache: inserting fetched's entries shifts the
// sorted position of everything else, so Decode's own SetLocal call
// rebuilds the index and cache from scratch against the merged mempool.
// The cache's payoff is repeated Decode calls against an unchanged local
// mempool, not a Retry, which by definition changes it.
func (r *Reconciler) Retry(ctx context.Context, prefixes []superthin.Prefix, local []superthin.Txid, fetched []superthin.Txid, commit superthin.Commitment) ([]superthin.Txid, superthin.DecodeStats, error) {
	merged := make([]superthin.Txid, 0, len(local)+len(fetched))
	merged = append(merged, local...)
	merged = append(merged, fetched...)

	return r.Decode(ctx, prefixes, merged, commit)
}

func outcomeLabel(err error) string {
	var decErr *superthin.DecodeError
	if errors.As(err, &decErr) {
		switch {
		case errors.Is(decErr.Kind, superthin.ErrMissingTransactions):
			return "missing_transactions"
		case errors.Is(decErr.Kind, superthin.ErrTooAmbiguous):
			return "too_ambiguous"
		case errors.Is(decErr.Kind, superthin.ErrHashMismatch):
			return "hash_mismatch"
		}
	}
	return "error"
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
