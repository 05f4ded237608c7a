package storage

import (
	"fmt"
	"strings"
)

// Sharder maps a hex digest to a shallow directory prefix plus a residual
// filename stem, bounding per-directory fan-out on ordinary filesystems.
//
// The input digest's case is never normalized: every hash in this codebase is
// produced as lowercase hex, and callers must keep it that way, since the
// same digest in a different case yields a different path.
type Sharder struct {
	chunkWidth int
	depth      int
}

// NewSharder validates the shard geometry. A non-positive chunk width or a
// negative depth is a configuration error and must be fatal at startup.
func NewSharder(chunkWidth, depth int) (*Sharder, error) {
	if chunkWidth <= 0 {
		return nil, fmt.Errorf("shard chunk width must be positive, got %d", chunkWidth)
	}
	if depth < 0 {
		return nil, fmt.Errorf("shard depth must not be negative, got %d", depth)
	}
	return &Sharder{chunkWidth: chunkWidth, depth: depth}, nil
}

// Split partitions the digest into consecutive chunkWidth-character chunks.
// The first depth full chunks become directory segments, each suffixed with
// the path separator; everything after them is concatenated into the residual
// filename stem. Digests shorter than chunkWidth*depth produce fewer
// directory segments and a possibly empty residual. Pure function, no I/O.
func (s *Sharder) Split(digest string) (dir, file string) {
	var dirB, fileB strings.Builder
	segments := 0

	for i := 0; i < len(digest); i += s.chunkWidth {
		end := i + s.chunkWidth
		if end > len(digest) {
			end = len(digest)
		}
		chunk := digest[i:end]

		if segments < s.depth && len(chunk) == s.chunkWidth {
			dirB.WriteString(chunk)
			dirB.WriteByte('/')
			segments++
		} else {
			fileB.WriteString(chunk)
		}
	}

	return dirB.String(), fileB.String()
}
