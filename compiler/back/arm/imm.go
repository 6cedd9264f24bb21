package arm

import (
	"math/bits"
)

type (
	// Imm is an 8-bit value rotated right by an even amount.
	Imm struct {
		Value uint8
		Rot   uint8
	}

	// vals is a sequence of immediates combined by Orr or Bic into a constant.
	vals struct {
		imms [4]Imm
		n    int
	}
)

// Uint32 decodes the immediate.
func (i Imm) Uint32() uint32 {
	return bits.RotateLeft32(uint32(i.Value), -int(i.Rot))
}

// EncodeImm finds the immediate representation of v if there is one.
func EncodeImm(v uint32) (Imm, bool) {
	if v <= 0xff {
		return Imm{Value: uint8(v)}, true
	}

	low := bits.TrailingZeros32(v) &^ 1
	high := (32 - bits.LeadingZeros32(v) + 1) &^ 1

	if high-low <= 8 {
		return Imm{Value: uint8(v >> low), Rot: uint8((32 - low) & 31)}, true
	}

	// set bits wrap around the word boundary
	if high > 24 {
		for r := 34 - high; r <= 30; r += 2 {
			if x := bits.RotateLeft32(v, r); x <= 0xff {
				return Imm{Value: uint8(x), Rot: uint8(r)}, true
			}
		}
	}

	return Imm{}, false
}

// valsFromWord splits v into 8-bit chunks at even positions, lowest first.
func valsFromWord(v uint32) (r vals) {
	if v <= 0xff {
		r.imms[0] = Imm{Value: uint8(v)}
		r.n = 1

		return r
	}

	pos := 0

	for v != 0 {
		for v&3 == 0 {
			v >>= 2
			pos += 2
		}

		r.imms[r.n] = Imm{Value: uint8(v), Rot: uint8((32 - pos) & 31)}
		r.n++

		v >>= 8
		pos += 8
	}

	return r
}
