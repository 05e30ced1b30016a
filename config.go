package superthin

const (
	// defaultExtraBytes is the safety margin appended to every minimal
	// unique prefix (spec §4.3).
	defaultExtraBytes = 2
	// defaultAmbiguityBudget bounds the number of candidate combinations
	// Decode will try before failing TooAmbiguous (spec §4.4).
	defaultAmbiguityBudget = 1500
	// defaultOscillationProbeCap bounds the bidirectional linear sweep
	// used by the finder to resolve interpolation-search oscillation
	// (spec §4.2).
	defaultOscillationProbeCap = 400
	// maxPrefixGrowth is the infinite-loop guard on the encoder's
	// prefix-growth loop (spec §4.3, §7 PrefixGrowthExceeded).
	maxPrefixGrowth = 30
)

// HashDomain selects what byte representation of a txid feeds the
// commitment digest. See spec §9 "Digest input domain".
type HashDomain uint8

const (
	// HashDomainHex hashes the ASCII hex-string form of each txid. This
	// is the default: it is wire compatible with existing superthin
	// deployments that hash the hex representation.
	HashDomainHex HashDomain = iota
	// HashDomainBinary hashes the 32 raw decoded bytes of each txid
	// instead, for deployments starting from scratch that would rather
	// not pay the 2x hex-encoding overhead per digest input.
	HashDomainBinary
)

// Config holds tunables for Encode and Decode.
type Config struct {
	// ExtraBytes is the number of extra hex characters appended to every
	// minimal unique prefix as a safety margin against small receiver
	// divergence. Zero is valid: it lowers tolerance to local divergence
	// but still round-trips against an identical receiver mempool.
	ExtraBytes int

	// AmbiguityBudget is the maximum product of per-position candidate
	// counts Decode will enumerate before failing with TooAmbiguous.
	// Zero means the default of 1500 (spec §4.4).
	AmbiguityBudget int

	// OscillationProbeCap bounds the bidirectional linear sweep the
	// finder performs once interpolation search oscillates. Zero means
	// the default of 400 (spec §4.2).
	OscillationProbeCap int

	// HashDomain selects the commitment's input byte domain. Zero value
	// is HashDomainHex.
	HashDomain HashDomain

	// Parallelism bounds the number of goroutines used to fan out
	// per-txid prefix computation (Encode) and per-position candidate
	// resolution (Decode). Zero or one means sequential execution; the
	// spec's concurrency model (§5) treats both as embarrassingly
	// parallel, read-only-over-the-sorted-view operations.
	Parallelism int
}

// Option configures a Config.
type Option func(*Config)

// WithExtraBytes sets the safety margin appended to every minimal unique
// prefix.
func WithExtraBytes(n int) Option {
	return func(c *Config) { c.ExtraBytes = n }
}

// WithAmbiguityBudget overrides the default combination-search ceiling.
func WithAmbiguityBudget(n int) Option {
	return func(c *Config) { c.AmbiguityBudget = n }
}

// WithOscillationProbeCap overrides the default bidirectional sweep cap.
func WithOscillationProbeCap(n int) Option {
	return func(c *Config) { c.OscillationProbeCap = n }
}

// WithHashDomain selects the commitment's input byte domain.
func WithHashDomain(d HashDomain) Option {
	return func(c *Config) { c.HashDomain = d }
}

// WithParallelism bounds the number of goroutines used for per-txid /
// per-position fan-out. Values below 2 disable parallelism.
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

func resolveConfig(opts []Option) Config {
	cfg := Config{ExtraBytes: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ExtraBytes < 0 {
		cfg.ExtraBytes = defaultExtraBytes
	}
	if cfg.AmbiguityBudget <= 0 {
		cfg.AmbiguityBudget = defaultAmbiguityBudget
	}
	if cfg.OscillationProbeCap <= 0 {
		cfg.OscillationProbeCap = defaultOscillationProbeCap
	}
	return cfg
}
