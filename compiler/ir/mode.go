package ir

import "tlog.app/go/tlog/tlwire"

type (
	Sort uint8

	Mode struct {
		Name   string
		Sort   Sort
		Bits   int
		Signed bool

		// ModuloShift is the shift amount modulus for integer shifts, 0 if undefined.
		ModuloShift int
	}
)

const (
	SortInt Sort = iota
	SortFloat
	SortReference
	SortBool
	SortMemory
	SortControl
	SortTuple
	SortBlock
	SortAny
	SortFlags
)

var (
	ModeBs = &Mode{Name: "Bs", Sort: SortInt, Bits: 8, Signed: true, ModuloShift: 32}
	ModeBu = &Mode{Name: "Bu", Sort: SortInt, Bits: 8, ModuloShift: 32}
	ModeHs = &Mode{Name: "Hs", Sort: SortInt, Bits: 16, Signed: true, ModuloShift: 32}
	ModeHu = &Mode{Name: "Hu", Sort: SortInt, Bits: 16, ModuloShift: 32}
	ModeIs = &Mode{Name: "Is", Sort: SortInt, Bits: 32, Signed: true, ModuloShift: 32}
	ModeIu = &Mode{Name: "Iu", Sort: SortInt, Bits: 32, ModuloShift: 32}
	ModeLs = &Mode{Name: "Ls", Sort: SortInt, Bits: 64, Signed: true, ModuloShift: 64}
	ModeLu = &Mode{Name: "Lu", Sort: SortInt, Bits: 64, ModuloShift: 64}

	ModeF = &Mode{Name: "F", Sort: SortFloat, Bits: 32, Signed: true}
	ModeD = &Mode{Name: "D", Sort: SortFloat, Bits: 64, Signed: true}

	ModeP = &Mode{Name: "P", Sort: SortReference, Bits: 32, ModuloShift: 32}

	Modeb   = &Mode{Name: "b", Sort: SortBool}
	ModeM   = &Mode{Name: "M", Sort: SortMemory}
	ModeX   = &Mode{Name: "X", Sort: SortControl}
	ModeT   = &Mode{Name: "T", Sort: SortTuple}
	ModeBB  = &Mode{Name: "BB", Sort: SortBlock}
	ModeANY = &Mode{Name: "ANY", Sort: SortAny}
)

var modes = []*Mode{ModeBs, ModeBu, ModeHs, ModeHu, ModeIs, ModeIu, ModeLs, ModeLu, ModeF, ModeD, ModeP, Modeb, ModeM, ModeX, ModeT, ModeBB, ModeANY}

func ModeByName(n string) *Mode {
	for _, m := range modes {
		if m.Name == n {
			return m
		}
	}

	return nil
}

func (m *Mode) IsInt() bool       { return m.Sort == SortInt }
func (m *Mode) IsFloat() bool     { return m.Sort == SortFloat }
func (m *Mode) IsReference() bool { return m.Sort == SortReference }

// IsData reports whether values of m live in registers.
func (m *Mode) IsData() bool {
	return m.Sort == SortInt || m.Sort == SortFloat || m.Sort == SortReference
}

// IsIntOrRef reports whether m is held in general purpose registers.
func (m *Mode) IsIntOrRef() bool {
	return m.Sort == SortInt || m.Sort == SortReference
}

func (m *Mode) Size() int {
	return m.Bits / 8
}

func (m *Mode) String() string {
	if m == nil {
		return "<nil>"
	}

	return m.Name
}

func (m *Mode) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if m == nil {
		return e.AppendNil(b)
	}

	return e.AppendString(b, m.Name)
}
