// Package superthin implements a compact mempool set-reconciliation codec
// of the "super-thin block" family: given two peers that each hold a
// mostly-but-not-exactly-matching set of 32-byte transaction IDs, Encode
// produces a list of minimal-length hex prefixes (plus a commitment digest)
// that a receiver can resolve back against its own, possibly divergent,
// local set with Decode.
//
// The package only concerns itself with the codec: acquiring a mempool from
// a node, transporting the encoded message, and fetching missing
// transactions from the sender are all left to the caller. See package
// reconcile for a service-shaped wrapper that adds logging, metrics, rate
// limiting and caching around Decode.
package superthin
