package rgsstype

import (
	"fmt"
	"math"
)

// ValidateRange checks that an entry's content lies within a source of the given size.
// It validates:
//   - Offset and Size are non-negative
//   - Offset + Size doesn't overflow
//   - Offset + Size doesn't exceed sourceSize
func ValidateRange(entry *Entry, sourceSize int64) error {
	if entry.Offset < 0 || entry.Size < 0 {
		return fmt.Errorf("%w: %q has negative range", ErrCorruptArchive, entry.Name)
	}
	end, ok := AddInt64(entry.Offset, entry.Size)
	if !ok {
		return fmt.Errorf("%w: %q range overflows", ErrCorruptArchive, entry.Name)
	}
	if end > sourceSize {
		return fmt.Errorf("%w: %q ends at %d past archive size %d",
			ErrCorruptArchive, entry.Name, end, sourceSize)
	}
	return nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}
