package ident

import "math"

// CanonicalFloat64 canonicalizes f: every NaN collapses to a single
// canonical quiet-NaN bit pattern, subnormals flush to +0, and signed
// zeros collapse to +0. Canonical scalar equality is then byte equality
// of the returned bits.
//
// The engine never uses the host's native float-to-string or default
// hashing for scalars — CanonicalFloat64Bits below is what feeds the
// hash stream instead.
func CanonicalFloat64(f float64) float64 {
	if math.IsNaN(f) {
		return canonicalQuietNaN
	}
	if f == 0 {
		return 0 // collapses -0 to +0
	}
	if isSubnormal64(f) {
		return 0
	}
	return f
}

// canonicalQuietNaN is the single bit pattern every NaN canonicalizes to.
var canonicalQuietNaN = math.Float64frombits(0x7ff8000000000000)

func isSubnormal64(f float64) bool {
	bits := math.Float64bits(f)
	exp := (bits >> 52) & 0x7ff
	mant := bits & 0xfffffffffffff
	return exp == 0 && mant != 0
}

// CanonicalFloat64Bits returns the little-endian byte encoding of the
// canonicalized form of f, suitable for absorbing directly into an
// ident.Context.
func CanonicalFloat64Bits(f float64) [8]byte {
	bits := math.Float64bits(CanonicalFloat64(f))
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}

// CanonicalFloat32 is the 32-bit analogue of CanonicalFloat64.
func CanonicalFloat32(f float32) float32 {
	if math.IsNaN(float64(f)) {
		return canonicalQuietNaN32
	}
	if f == 0 {
		return 0
	}
	if isSubnormal32(f) {
		return 0
	}
	return f
}

var canonicalQuietNaN32 = math.Float32frombits(0x7fc00000)

func isSubnormal32(f float32) bool {
	bits := math.Float32bits(f)
	exp := (bits >> 23) & 0xff
	mant := bits & 0x7fffff
	return exp == 0 && mant != 0
}

// CanonicalFloat32Bits returns the little-endian byte encoding of the
// canonicalized form of f.
func CanonicalFloat32Bits(f float32) [4]byte {
	bits := math.Float32bits(CanonicalFloat32(f))
	var out [4]byte
	for i := 0; i < 4; i++ {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}
