package superthin

import "fmt"

// TxidLength is the fixed length, in hex characters, of a txid (32 bytes).
const TxidLength = 64

// Txid is a 32-byte transaction ID rendered as 64 lowercase hex characters.
type Txid string

// Valid reports whether t has the fixed length and character set a txid
// requires: exactly 64 lowercase hex digits.
func (t Txid) Valid() bool {
	if len(t) != TxidLength {
		return false
	}
	return isLowerHex(string(t))
}

// Prefix is a leading hex substring of a txid, of any length from 1 to 64,
// sufficient to identify it within a particular sorted mempool.
type Prefix string

// Valid reports whether p is a non-empty, in-range, lowercase hex string.
func (p Prefix) Valid() bool {
	if len(p) == 0 || len(p) > TxidLength {
		return false
	}
	return isLowerHex(string(p))
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// validateMempool checks every txid for well-formedness and duplicates,
// returning the first offending txid and the sentinel error describing why
// (ErrDuplicateInput, or a plain malformed-input error). Callers wrap the
// result into the error type appropriate for their operation (Encode uses
// EncodeError; Decode's local-mempool check is a plain caller-input error,
// distinct from the three decode failure kinds in spec §7).
func validateMempool(mempool []Txid) (Txid, error) {
	seen := make(map[Txid]struct{}, len(mempool))
	for _, t := range mempool {
		if !t.Valid() {
			return t, fmt.Errorf("superthin: invalid txid %q", string(t))
		}
		if _, dup := seen[t]; dup {
			return t, ErrDuplicateInput
		}
		seen[t] = struct{}{}
	}
	return "", nil
}
