package arm

import (
	"strings"

	"tlog.app/go/errors"
)

type (
	Variant int
	FPU     int

	Config struct {
		Variant Variant `yaml:"variant"`
		FPU     FPU     `yaml:"fpu"`
	}
)

const (
	V4 Variant = iota
	V5
	V5T
	V6
	V6T2
	V7
)

const (
	FPUSoft FPU = iota
	FPUFPA
)

var variantNames = []string{
	V4:   "v4",
	V5:   "v5",
	V5T:  "v5t",
	V6:   "v6",
	V6T2: "v6t2",
	V7:   "v7",
}

var fpuNames = []string{
	FPUSoft: "soft",
	FPUFPA:  "fpa",
}

var ErrUnknownTarget = errors.New("unknown target option")

func DefaultConfig() Config {
	return Config{Variant: V6T2, FPU: FPUFPA}
}

func ParseVariant(s string) (Variant, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "arm")

	for v, n := range variantNames {
		if n == s {
			return Variant(v), nil
		}
	}

	return 0, errors.Wrap(ErrUnknownTarget, "variant %q", s)
}

func ParseFPU(s string) (FPU, error) {
	s = strings.ToLower(s)

	for f, n := range fpuNames {
		if n == s {
			return FPU(f), nil
		}
	}

	return 0, errors.Wrap(ErrUnknownTarget, "fpu %q", s)
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "v?"
	}

	return variantNames[v]
}

func (f FPU) String() string {
	if f < 0 || int(f) >= len(fpuNames) {
		return "fpu?"
	}

	return fpuNames[f]
}

func (v *Variant) UnmarshalText(b []byte) (err error) {
	*v, err = ParseVariant(string(b))
	return
}

func (f *FPU) UnmarshalText(b []byte) (err error) {
	*f, err = ParseFPU(string(b))
	return
}
