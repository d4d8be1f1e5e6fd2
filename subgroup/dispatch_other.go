//go:build !amd64 && !arm64

package subgroup

func init() {
	setLevel(DispatchScalar)
}
