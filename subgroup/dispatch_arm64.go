//go:build arm64

package subgroup

import "golang.org/x/sys/cpu"

func init() {
	if NoSimdEnv() {
		setLevel(DispatchScalar)
		return
	}

	// ARM64 (AArch64) always has NEON (ASIMD); it's part of the ARMv8-A
	// base architecture. SVE is reported but keeps the 128-bit default
	// size because its vector length is only known at run time.
	switch {
	case cpu.ARM64.HasSVE:
		setLevel(DispatchSVE)
	case cpu.ARM64.HasASIMD:
		setLevel(DispatchNEON)
	default:
		setLevel(DispatchScalar)
	}
}
