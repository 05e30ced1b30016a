package superthin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hiddenvs/superthin/finder"
)

// genTxids deterministically derives n distinct 64-hex-char txids from seed,
// so every test here is reproducible without depending on package-level
// random state.
func genTxids(seed string, n int) []Txid {
	out := make([]Txid, n)
	for i := 0; i < n; i++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", seed, i)))
		out[i] = Txid(hex.EncodeToString(sum[:]))
	}
	return out
}

func hexTxid(b byte) Txid {
	return Txid(strings.Repeat(fmt.Sprintf("%02x", b), 32))
}

func TestEncodeExactMatchRoundTrips(t *testing.T) {
	// S1: exact match.
	m := []Txid{hexTxid(0xaa), hexTxid(0xbb)}

	res, err := Encode(m, WithExtraBytes(2))
	require.NoError(t, err)
	for _, p := range res.Prefixes {
		require.GreaterOrEqual(t, len(p), 3)
	}

	got, _, err := Decode(context.Background(), res.Prefixes, m, res.Commitment)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestEncodeDecodeRoundTripIdenticalMempool(t *testing.T) {
	// Universal property 1.
	m := genTxids("identical", 1000)

	res, err := Encode(m)
	require.NoError(t, err)

	got, stats, err := Decode(context.Background(), res.Prefixes, m, res.Commitment)
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, len(m), stats.Unique)
	require.Zero(t, stats.Ambiguous)
	require.Zero(t, stats.Missing)
}

func TestEncodeReceiverHasExtras(t *testing.T) {
	// S2: receiver has extras.
	m := genTxids("base", 1000)
	extras := genTxids("extra", 30)
	local := append(append([]Txid{}, m...), extras...)

	res, err := Encode(m, WithExtraBytes(1))
	require.NoError(t, err)

	got, _, err := Decode(context.Background(), res.Prefixes, local, res.Commitment)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestEncodePrefixUniquenessAgainstSortedNeighbors(t *testing.T) {
	// Universal property 2.
	m := genTxids("uniqueness", 500)

	res, err := Encode(m, WithExtraBytes(0))
	require.NoError(t, err)

	sorted := make([]string, len(m))
	for i, t := range m {
		sorted[i] = string(t)
	}
	sort.Strings(sorted)

	posOf := make(map[string]int, len(sorted))
	for i, s := range sorted {
		posOf[s] = i
	}

	for i, t := range m {
		p := res.Prefixes[i]
		pos := posOf[string(t)]
		require.True(t, strings.HasPrefix(string(t), string(p)))
		if pos > 0 {
			require.False(t, strings.HasPrefix(sorted[pos-1], string(p)),
				"prefix %q (pos %d) also matches left neighbor %q", p, pos, sorted[pos-1])
		}
		if pos < len(sorted)-1 {
			require.False(t, strings.HasPrefix(sorted[pos+1], string(p)),
				"prefix %q (pos %d) also matches right neighbor %q", p, pos, sorted[pos+1])
		}
	}
}

func TestEncodeEmptyMempool(t *testing.T) {
	res, err := Encode(nil)
	require.NoError(t, err)
	require.Empty(t, res.Prefixes)
	require.Equal(t, commitment(nil, HashDomainHex), res.Commitment)
}

func TestEncodeSingleEntry(t *testing.T) {
	m := []Txid{hexTxid(0x42)}
	res, err := Encode(m, WithExtraBytes(3))
	require.NoError(t, err)
	require.Len(t, res.Prefixes, 1)
	require.Equal(t, finder.StartLength(1)+3, len(res.Prefixes[0]))
}

func TestEncodeRejectsDuplicateInput(t *testing.T) {
	m := []Txid{hexTxid(0x01), hexTxid(0x01)}
	_, err := Encode(m)
	require.Error(t, err)
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	require.ErrorIs(t, encErr, ErrDuplicateInput)
}

func TestEncodeRejectsMalformedTxid(t *testing.T) {
	_, err := Encode([]Txid{"not-hex"})
	require.Error(t, err)
}

func TestCommitmentSensitiveToOrder(t *testing.T) {
	// Universal property 5: swapping any two distinct txids changes H.
	m := genTxids("order", 100)
	h1 := commitment(m, HashDomainHex)

	swapped := append([]Txid{}, m...)
	swapped[3], swapped[71] = swapped[71], swapped[3]
	h2 := commitment(swapped, HashDomainHex)

	require.NotEqual(t, h1, h2)
}

func TestEncodeDecodeRoundTripHashDomainBinary(t *testing.T) {
	// §9 "Digest input domain": HashDomainBinary hashes each txid's 32
	// raw decoded bytes instead of its hex string. Round trip must still
	// succeed end to end as long as encoder and decoder agree on the
	// domain.
	m := genTxids("hash-domain-binary", 400)

	res, err := Encode(m, WithExtraBytes(2), WithHashDomain(HashDomainBinary))
	require.NoError(t, err)

	got, stats, err := Decode(context.Background(), res.Prefixes, m, res.Commitment, WithHashDomain(HashDomainBinary))
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, len(m), stats.Unique)
}

func TestCommitmentHashDomainBinaryDiffersFromHex(t *testing.T) {
	// The two domains must not be interchangeable: hashing the same
	// txids under HashDomainHex and HashDomainBinary produces different
	// digests (one hashes the 64-char ASCII string, the other the 32 raw
	// bytes it decodes to).
	m := genTxids("hash-domain-diff", 50)

	hHex := commitment(m, HashDomainHex)
	hBinary := commitment(m, HashDomainBinary)

	require.NotEqual(t, hHex, hBinary)
}

func TestDecodeRejectsWhenHashDomainMismatchesEncoder(t *testing.T) {
	// Encoding under HashDomainBinary and decoding under the default
	// HashDomainHex must fail the commitment check rather than silently
	// accepting the reconstruction.
	m := genTxids("hash-domain-mismatch", 100)

	res, err := Encode(m, WithExtraBytes(2), WithHashDomain(HashDomainBinary))
	require.NoError(t, err)

	_, _, err = Decode(context.Background(), res.Prefixes, m, res.Commitment)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, decErr, ErrHashMismatch)
}
