package subgroup

import (
	"os"
	"strconv"
)

// DispatchLevel is the SIMD instruction set detected on the host. It decides
// the default sub-group size: one lane per 32-bit element of a register.
type DispatchLevel int

const (
	// DispatchScalar indicates no usable SIMD.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2 instructions (256-bit SIMD).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 instructions (512-bit SIMD).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (128-bit SIMD).
	DispatchNEON

	// DispatchSVE indicates ARM SVE instructions (scalable vector).
	DispatchSVE
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	default:
		return "unknown"
	}
}

// registerBytes is the SIMD register width in bytes for a level.
func (d DispatchLevel) registerBytes() int {
	switch d {
	case DispatchAVX2:
		return 32
	case DispatchAVX512:
		return 64
	default:
		// Scalar is treated as a 128-bit machine so that the default
		// sub-group stays at 4 lanes everywhere.
		return 16
	}
}

// currentLevel is the detected SIMD level for this runtime.
// Set by init() in dispatch_*.go files.
var currentLevel DispatchLevel

// defaultSize is the sub-group size handed out when callers do not pick one.
var defaultSize int

// CurrentLevel returns the SIMD instruction set detected at startup.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentName returns a human-readable name for the current SIMD target.
func CurrentName() string {
	return currentLevel.String()
}

// DefaultSize returns the sub-group size for this host: the number of
// 32-bit lanes in one SIMD register, or the SUBGROUP_SIZE override.
func DefaultSize() int {
	return defaultSize
}

// SupportedWidths returns every valid sub-group width in ascending order.
func SupportedWidths() []int {
	var out []int
	for w := 1; w <= MaxWidth; w <<= 1 {
		out = append(out, w)
	}
	return out
}

// NoSimdEnv checks if the SUBGROUP_NO_SIMD environment variable is set.
// When set, detection reports DispatchScalar regardless of CPU capabilities.
func NoSimdEnv() bool {
	val := os.Getenv("SUBGROUP_NO_SIMD")
	if val == "" {
		return false
	}
	// Any non-empty value is considered true, but also parse as bool
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// sizeEnv returns the SUBGROUP_SIZE override, if it names a valid width.
func sizeEnv() (int, bool) {
	val := os.Getenv("SUBGROUP_SIZE")
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil || !ValidWidth(n) {
		return 0, false
	}
	return n, true
}

// setLevel records the detected level and derives the default size.
func setLevel(level DispatchLevel) {
	currentLevel = level
	defaultSize = level.registerBytes() / 4
	if n, ok := sizeEnv(); ok {
		defaultSize = n
	}
}
