package superthin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDecodeReceiverMissingSome(t *testing.T) {
	// S3: receiver missing some.
	m := genTxids("missing-base", 1000)

	res, err := Encode(m)
	require.NoError(t, err)

	missingIdx := []int{7, 501, 999}
	local := make([]Txid, 0, len(m)-len(missingIdx))
	skip := map[int]bool{7: true, 501: true, 999: true}
	for i, t := range m {
		if !skip[i] {
			local = append(local, t)
		}
	}

	_, stats, err := Decode(context.Background(), res.Prefixes, local, res.Commitment)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, decErr, ErrMissingTransactions)
	require.Len(t, decErr.MissingPositions, len(missingIdx))
	require.Equal(t, len(missingIdx), stats.Missing)
}

// plantedPrefixTxid builds a 64-char hex txid that starts with prefix and is
// otherwise derived from salt, so two distinct txids can share an engineered
// prefix without colliding entirely.
func plantedPrefixTxid(prefix, salt string) Txid {
	sum := sha256.Sum256([]byte(salt))
	tail := hex.EncodeToString(sum[:])
	full := prefix + tail
	return Txid(full[:TxidLength])
}

func TestDecodePlantedAmbiguityResolvesViaHash(t *testing.T) {
	// S4: planted ambiguity. t1's own minimal-unique prefix needs to land
	// on exactly "abcdef" for the scenario to bite, so a close sibling
	// sharing the first 5 hex characters (and diverging at the 6th) is
	// planted right alongside it in M, forcing the encoder's prefix-growth
	// loop out to 6 characters.
	base := genTxids("ambiguity-base", 200)
	t1 := plantedPrefixTxid("abcdef", "t1-salt")
	sibling := plantedPrefixTxid("abcdee", "sibling-salt")

	m := append(append(append([]Txid{}, base...), sibling), t1)

	res, err := Encode(m, WithExtraBytes(0))
	require.NoError(t, err)

	t2 := plantedPrefixTxid("abcdef", "t2-salt")
	local := append(append([]Txid{}, m...), t2)

	got, stats, err := Decode(context.Background(), res.Prefixes, local, res.Commitment)
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.GreaterOrEqual(t, stats.Ambiguous, 1)
}

func TestDecodeAmbiguityCeilingFails(t *testing.T) {
	// S5: ambiguity ceiling. 11 ambiguous positions at 2 candidates each:
	// 2^11 = 2048 > the default budget of 1500.
	const positions = 11

	m := make([]Txid, 0, positions)
	local := make([]Txid, 0, positions*2)
	for i := 0; i < positions; i++ {
		prefix := fmt.Sprintf("%06x", i)
		primary := plantedPrefixTxid(prefix, fmt.Sprintf("ceiling-primary-%d", i))
		twin := plantedPrefixTxid(prefix, fmt.Sprintf("ceiling-twin-%d", i))
		m = append(m, primary)
		local = append(local, primary, twin)
	}

	res, err := Encode(m, WithExtraBytes(0))
	require.NoError(t, err)

	_, _, err = Decode(context.Background(), res.Prefixes, local, res.Commitment)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, decErr, ErrTooAmbiguous)
}

func TestDecodeAdversarialDigestMismatch(t *testing.T) {
	// S6: adversarial digest mismatch.
	m := genTxids("tamper", 50)

	res, err := Encode(m)
	require.NoError(t, err)

	tampered := res.Commitment
	tampered[0] ^= 0xff

	_, _, err = Decode(context.Background(), res.Prefixes, m, tampered)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, decErr, ErrHashMismatch)
}

func TestDecodeRejectsMalformedPrefix(t *testing.T) {
	m := genTxids("malformed-prefix", 5)
	res, err := Encode(m)
	require.NoError(t, err)

	bad := append([]Prefix{}, res.Prefixes...)
	bad[0] = "not-hex!"

	_, _, err = Decode(context.Background(), bad, m, res.Commitment)
	require.Error(t, err)
	require.False(t, errors.As(err, new(*DecodeError)), "malformed-input rejection should not masquerade as a DecodeError kind")
}

func TestDecodeEmptyPrefixesEmptyLocal(t *testing.T) {
	// |M| = 0 boundary: encode's empty-mempool digest must still decode.
	res, err := Encode(nil)
	require.NoError(t, err)

	got, _, err := Decode(context.Background(), res.Prefixes, nil, res.Commitment)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeExtraBytesZeroStillRoundTrips(t *testing.T) {
	// Boundary: extra_bytes = 0 still round-trips against an identical
	// local mempool (lower tolerance to divergence, not correctness).
	m := genTxids("zero-extra", 300)

	res, err := Encode(m, WithExtraBytes(0))
	require.NoError(t, err)

	got, _, err := Decode(context.Background(), res.Prefixes, m, res.Commitment)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestDecodeHonorsContextCancellation(t *testing.T) {
	m := genTxids("ctx-cancel", 200)
	res, err := Encode(m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = Decode(ctx, res.Prefixes, m, res.Commitment)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeExactOrderAndStatsMatchEncodeSideExpectations(t *testing.T) {
	// Exact-order and exact-stats comparison (not just membership), using
	// go-cmp in place of testify/require for structured-value diffing, the
	// way calvinalkan-agent-task compares structs in its own tests.
	m := genTxids("cmp-exact", 500)

	res, err := Encode(m, WithExtraBytes(2))
	require.NoError(t, err)

	got, stats, err := Decode(context.Background(), res.Prefixes, m, res.Commitment)
	require.NoError(t, err)

	if diff := cmp.Diff(m, got); diff != "" {
		t.Fatalf("decoded mempool order mismatch (-want +got):\n%s", diff)
	}

	wantStats := DecodeStats{
		Unique:            len(m),
		Ambiguous:         0,
		Missing:           0,
		CombinationsTried: 0,
		FinderCalls:       stats.FinderCalls,
		FinderProbes:      stats.FinderProbes,
	}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Fatalf("decode stats mismatch (-want +got):\n%s", diff)
	}
}
