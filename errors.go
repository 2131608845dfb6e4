// errors.go - Error kinds for the ce84 core
//
// The core never panics across its public API: every entry point that can
// fail returns one of the sentinel errors below (or wraps it with
// fmt.Errorf's %w), and ABIErrorCode maps each sentinel to the negative
// integer code a C-ABI wrapper hands back to its host. Unknown opcodes,
// unmapped memory accesses and writes to read-only regions are, by design,
// never reported as errors (spec §7) — they produce defined silent
// behaviour instead.

package ce84

import "errors"

// Input errors: the caller handed the core something malformed.
var (
	ErrROMWrongSize = errors.New("ce84: rom image is not 4 MiB")
	ErrROMEmpty     = errors.New("ce84: rom image is empty")
	ErrKeyOutOfRange = errors.New("ce84: key row/col out of range")
)

// State errors: the caller invoked an operation before the core was ready.
var (
	ErrNotLoaded          = errors.New("ce84: no rom loaded")
	ErrSnapshotBufferSmall = errors.New("ce84: snapshot buffer too small")
)

// Snapshot errors: a saved state could not be restored.
var (
	ErrSnapshotMagic    = errors.New("ce84: snapshot magic mismatch")
	ErrSnapshotVersion  = errors.New("ce84: snapshot version mismatch")
	ErrSnapshotSize     = errors.New("ce84: snapshot size mismatch")
	ErrSnapshotTrailing = errors.New("ce84: snapshot has trailing data")
	ErrSnapshotSection  = errors.New("ce84: snapshot section corrupt")
)

// ABIErrorCode maps a sentinel error (or an error wrapping one) to the
// negative integer code a C-ABI boundary would return to its host. Errors
// not recognised here map to -1 (generic internal error).
func ABIErrorCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrROMWrongSize):
		return -10
	case errors.Is(err, ErrROMEmpty):
		return -11
	case errors.Is(err, ErrKeyOutOfRange):
		return -12
	case errors.Is(err, ErrNotLoaded):
		return -20
	case errors.Is(err, ErrSnapshotBufferSmall):
		return -21
	case errors.Is(err, ErrSnapshotMagic):
		return -30
	case errors.Is(err, ErrSnapshotVersion):
		return -31
	case errors.Is(err, ErrSnapshotSize):
		return -32
	case errors.Is(err, ErrSnapshotTrailing):
		return -33
	case errors.Is(err, ErrSnapshotSection):
		return -34
	default:
		return -1
	}
}
