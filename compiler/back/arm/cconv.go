package arm

import (
	"tlog.app/go/errors"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

type (
	// Slot is where a parameter or a result is passed.
	// Values wider than a word take two registers, or a register and a stack word.
	Slot struct {
		Reg0 *back.Register
		Reg1 *back.Register

		// Split is set if the lower half is in Reg0 and the upper one on the stack.
		Split bool

		// Offset in the incoming argument area if the value or its upper half is on the stack.
		Offset int
		// Type of the stack resident part.
		Type tp.Type

		// Entity is the incoming argument storage, created with the stack layout.
		Entity *ir.Entity
	}

	CallingConvention struct {
		Params  []Slot
		Results []Slot

		ParamStackSize int
		NParamRegs     int
	}
)

var ErrCallingConvention = errors.New("calling convention")

// DecideCallingConvention assigns parameters and results of t to registers and stack slots.
// Parameters are passed in r0..r3, floats as integer words, the rest on the stack.
// Results are returned in r0..r3, floats in f0.
func DecideCallingConvention(t *tp.Func) (*CallingConvention, error) {
	if t == nil {
		t = &tp.Func{}
	}

	cc := &CallingConvention{
		Params:  make([]Slot, len(t.In)),
		Results: make([]Slot, len(t.Out)),
	}

	stack := 0
	reg := 0

	for i, pt := range t.In {
		p := &cc.Params[i]
		p.Type = pt

		bits, err := slotBits(pt)
		if err != nil {
			return nil, errors.Wrap(err, "param %d", i)
		}

		if reg >= len(ParamRegs) {
			p.Offset = stack
			stack += max(bits/8, 4)

			continue
		}

		p.Reg0 = ParamRegs[reg]
		reg++

		if bits <= 32 {
			continue
		}

		if reg < len(ParamRegs) {
			p.Reg1 = ParamRegs[reg]
			reg++

			continue
		}

		p.Split = true
		p.Type = tp.Int{Bits: 32}
		p.Offset = stack
		stack += 4
	}

	cc.NParamRegs = reg
	cc.ParamStackSize = stack

	reg = 0
	freg := 0

	for i, rt := range t.Out {
		r := &cc.Results[i]
		r.Type = rt

		if _, ok := rt.(tp.Float); ok {
			if freg != 0 {
				return nil, errors.Wrap(ErrCallingConvention, "result %d: too many float results", i)
			}

			r.Reg0 = FResultReg
			freg++

			continue
		}

		if rt.Size() > 4 {
			return nil, errors.Wrap(ErrCallingConvention, "result %d: results wider than 32 bits are not supported", i)
		}

		if reg >= len(ResultRegs) {
			return nil, errors.Wrap(ErrCallingConvention, "result %d: too many results", i)
		}

		r.Reg0 = ResultRegs[reg]
		reg++
	}

	return cc, nil
}

// Free releases the convention. It's not usable afterwards.
func (cc *CallingConvention) Free() {
	cc.Params = nil
	cc.Results = nil
}

// OnStack reports whether the value or its part is passed in memory.
func (s *Slot) OnStack() bool {
	return s.Reg0 == nil || s.Split
}

func slotBits(t tp.Type) (int, error) {
	switch t := t.(type) {
	case tp.Int:
		if t.Bits > 32 {
			return 0, errors.Wrap(ErrCallingConvention, "%v must be lowered to word pairs", t)
		}

		return 32, nil
	case tp.Float:
		return int(t.Bits), nil
	case tp.Ptr, *tp.Func:
		return 32, nil
	}

	return 0, errors.Wrap(ErrCallingConvention, "unsupported parameter type %v", t)
}
