package codec

import (
	"fmt"
	"strings"

	"sigvault/internal/domain"
)

// chunkSize bounds how much input a single append pass expands, keeping
// intermediate buffers small for large session blobs.
const chunkSize = 1024

// Encode maps each input byte to the rune with the same value. The result
// is a valid Go string whose rune count equals len(b).
func Encode(b []byte) string {
	var sb strings.Builder
	// Latin-1 runes occupy at most two bytes in UTF-8.
	sb.Grow(len(b) * 2)
	for len(b) > 0 {
		n := min(len(b), chunkSize)
		for _, v := range b[:n] {
			sb.WriteRune(rune(v))
		}
		b = b[n:]
	}
	return sb.String()
}

// Decode inverts Encode. Any rune above 0xFF cannot have come from Encode
// and fails with ErrCorruptState.
func Decode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: rune %U outside byte range", domain.ErrCorruptState, r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}
