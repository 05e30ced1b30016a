package superthin

import (
	"crypto/sha256"
	"encoding/hex"
)

// Commitment is the 32-byte SHA-256 digest that gates acceptance of any
// decoded reconstruction (spec §4.3, §6).
type Commitment [sha256.Size]byte

// commitment computes the commitment digest over txids in the given order,
// per the configured HashDomain (spec §9 "Digest input domain").
func commitment(txids []Txid, domain HashDomain) Commitment {
	h := sha256.New()
	switch domain {
	case HashDomainBinary:
		var buf [32]byte
		for _, t := range txids {
			n, err := hex.Decode(buf[:], []byte(t))
			if err != nil || n != 32 {
				// Encode and Decode reject malformed txids through
				// validateMempool before reaching here; DecodeCandidates
				// does not validate sortedLocal. This path is unreachable
				// for well-formed input and exists only so a corrupt Txid
				// value can never silently hash as zero bytes.
				h.Write([]byte(t))
				continue
			}
			h.Write(buf[:])
		}
	default:
		for _, t := range txids {
			h.Write([]byte(t))
		}
	}
	var out Commitment
	copy(out[:], h.Sum(nil))
	return out
}
