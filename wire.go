package superthin

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire format (version 1), adapted from the teacher's stage-framed archive
// format (archive.go) down to the single flat record spec §6 describes:
//
//	magic[4]  = "STHM"
//	version   = uint16 little-endian
//	count     = uint32 little-endian
//	repeat count times:
//	  prefixLen = uint8
//	  prefix    = prefixLen bytes (ASCII hex)
//	commitment  = 32 bytes
//
// There is no mandated framing per spec §6; this is the superthin package's
// own optional serialization for transmitting an EncodeResult over a byte
// stream or storing it.
const (
	wireMagic   = "STHM"
	wireVersion = uint16(1)

	maxWireCount = 1 << 24
)

// WriteTo serializes res as prefixes-length-prefixed-hex plus the trailing
// commitment digest (spec §6). It implements io.WriterTo the same way
// archive.go's Archive does.
func (res *EncodeResult) WriteTo(w io.Writer) (int64, error) {
	if len(res.Prefixes) > maxWireCount {
		return 0, fmt.Errorf("superthin: too many prefixes to serialize: %d", len(res.Prefixes))
	}

	var total int64

	n, err := writeWireBytes(w, []byte(wireMagic))
	total += n
	if err != nil {
		return total, err
	}

	if err := binary.Write(w, binary.LittleEndian, wireVersion); err != nil {
		return total, err
	}
	total += 2

	if err := binary.Write(w, binary.LittleEndian, uint32(len(res.Prefixes))); err != nil {
		return total, err
	}
	total += 4

	for _, p := range res.Prefixes {
		if len(p) == 0 || len(p) > TxidLength {
			return total, fmt.Errorf("superthin: prefix length %d out of range", len(p))
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(len(p))); err != nil {
			return total, err
		}
		total++

		n, err := writeWireBytes(w, []byte(p))
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = writeWireBytes(w, res.Commitment[:])
	total += n
	if err != nil {
		return total, err
	}

	return total, nil
}

// ReadEncodeResult deserializes a Prefixes/Commitment pair previously
// written by EncodeResult.WriteTo. It does not populate Stats: those are
// call-local diagnostics, not part of the wire contract.
func ReadEncodeResult(r io.Reader) (*EncodeResult, int64, error) {
	var total int64

	var magic [4]byte
	n, err := io.ReadFull(r, magic[:])
	total += int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("superthin: read wire magic: %w", err)
	}
	if string(magic[:]) != wireMagic {
		return nil, total, fmt.Errorf("superthin: invalid wire magic %q", string(magic[:]))
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, total, fmt.Errorf("superthin: read wire version: %w", err)
	}
	total += 2
	if version != wireVersion {
		return nil, total, fmt.Errorf("superthin: unsupported wire version %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, total, fmt.Errorf("superthin: read prefix count: %w", err)
	}
	total += 4
	if count > maxWireCount {
		return nil, total, fmt.Errorf("superthin: prefix count %d exceeds limit", count)
	}

	prefixes := make([]Prefix, count)
	for i := range prefixes {
		var plen uint8
		if err := binary.Read(r, binary.LittleEndian, &plen); err != nil {
			return nil, total, fmt.Errorf("superthin: read prefix %d length: %w", i, err)
		}
		total++
		if plen == 0 || int(plen) > TxidLength {
			return nil, total, fmt.Errorf("superthin: prefix %d length %d out of range", i, plen)
		}

		buf := make([]byte, plen)
		n, err := io.ReadFull(r, buf)
		total += int64(n)
		if err != nil {
			return nil, total, fmt.Errorf("superthin: read prefix %d body: %w", i, err)
		}
		prefixes[i] = Prefix(buf)
	}

	var commit Commitment
	n, err = io.ReadFull(r, commit[:])
	total += int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("superthin: read commitment: %w", err)
	}

	return &EncodeResult{Prefixes: prefixes, Commitment: commit}, total, nil
}

func writeWireBytes(w io.Writer, b []byte) (int64, error) {
	n, err := w.Write(b)
	if err != nil {
		return int64(n), err
	}
	if n != len(b) {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}
