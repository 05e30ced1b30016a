// Package snapshot persists an encoded mempool reconciliation message
// (prefixes + commitment) to disk, using the same on-disk binary shape as
// superthin's wire format, written atomically so a crash or concurrent
// reader never observes a half-written snapshot.
//
// Grounded on the teacher's compressor/dictionary.go Train/WriteTo/ReadFrom
// shape (a trained artifact, serialized and restored as a unit) and on
// calvinalkan-agent-task's cache_binary.go / ticket.go pattern of building
// the full byte buffer in memory, then handing it to
// github.com/natefinch/atomic for the actual write.
package snapshot

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/hiddenvs/superthin"
)

// Save atomically writes res's wire encoding to path, using the teacher's
// pattern of serializing to an in-memory buffer first so the file on disk
// is only ever replaced in one atomic rename, never partially written.
func Save(path string, res *superthin.EncodeResult) error {
	var buf bytes.Buffer
	if _, err := res.WriteTo(&buf); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a snapshot previously written by Save.
func Load(path string) (*superthin.EncodeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	res, _, err := superthin.ReadEncodeResult(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return res, nil
}
