package back

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/set"
)

type (
	RegClass struct {
		Name string
		Mode *ir.Mode
		Regs []*Register

		// Req is the requirement of any register of the class.
		Req *Req
	}

	Register struct {
		Name  string
		Index int // within class
		Cls   *RegClass

		// Single is the requirement of exactly this register.
		Single *Req
	}

	// Req is a register requirement of an operand or a result.
	Req struct {
		Cls *RegClass

		// Limited is the subset of Cls registers allowed, by index.
		Limited *set.Bitmap

		// SameAs and Different are bitmasks of operand positions.
		SameAs    uint32
		Different uint32
	}

	ReqKind int

	Flags uint8

	OutInfo struct {
		Req *Req
		Reg *Register

		Ignore bool
	}

	// Info holds register requirements and flags of a target node.
	Info struct {
		In  []*Req
		Out []OutInfo

		Flags Flags
	}

	// Attr is implemented by attributes of nodes with register requirements.
	Attr interface {
		BackInfo() *Info
	}
)

const (
	ReqNone ReqKind = iota
	ReqClass
	ReqLimited
	ReqSame
	ReqDifferent
)

const (
	NotSpillable Flags = 1 << iota
	Rematerializable
	// Ignore excludes the node results from register allocation.
	Ignore
	ModifyFlags
)

var NoReq = &Req{}

func NewRegClass(name string, mode *ir.Mode, names ...string) *RegClass {
	c := &RegClass{
		Name: name,
		Mode: mode,
	}

	c.Req = &Req{Cls: c}

	for i, n := range names {
		r := &Register{
			Name:  n,
			Index: i,
			Cls:   c,
		}

		r.Single = &Req{Cls: c, Limited: set.Of(i)}

		c.Regs = append(c.Regs, r)
	}

	return c
}

func (c *RegClass) Reg(name string) *Register {
	for _, r := range c.Regs {
		if r.Name == name {
			return r
		}
	}

	return nil
}

func (r *Req) Kind() ReqKind {
	switch {
	case r == nil || r.Cls == nil:
		return ReqNone
	case r.Limited != nil:
		return ReqLimited
	case r.SameAs != 0:
		return ReqSame
	case r.Different != 0:
		return ReqDifferent
	default:
		return ReqClass
	}
}

// Allows reports whether reg satisfies r, ignoring same-as and different-from constraints.
func (r *Req) Allows(reg *Register) bool {
	if r.Kind() == ReqNone || reg.Cls != r.Cls {
		return false
	}

	return r.Limited == nil || r.Limited.IsSet(reg.Index)
}

// SameAsIn makes a requirement of cls register which should be the same as operand pos.
func SameAsIn(cls *RegClass, pos int) *Req {
	return &Req{Cls: cls, SameAs: 1 << pos}
}

// DifferentFromIn makes a requirement of cls register which must differ from operand pos.
func DifferentFromIn(cls *RegClass, pos int) *Req {
	return &Req{Cls: cls, Different: 1 << pos}
}

// LimitedTo makes a requirement of any of the given registers of one class.
func LimitedTo(regs ...*Register) *Req {
	r := &Req{Cls: regs[0].Cls, Limited: set.NewBitmap(len(regs[0].Cls.Regs))}

	for _, reg := range regs {
		if reg.Cls != r.Cls {
			panic("registers of different classes")
		}

		r.Limited.Set(reg.Index)
	}

	return r
}

func (r *Req) String() string {
	switch r.Kind() {
	case ReqNone:
		return "n/a"
	case ReqLimited:
		s := r.Cls.Name + " {"

		for i, idx := range r.Limited.Slice() {
			if i != 0 {
				s += " "
			}

			s += r.Cls.Regs[idx].Name
		}

		return s + "}"
	case ReqSame:
		return fmt.Sprintf("%s same as %s", r.Cls.Name, positions(r.SameAs))
	case ReqDifferent:
		return fmt.Sprintf("%s different from %s", r.Cls.Name, positions(r.Different))
	default:
		return r.Cls.Name
	}
}

func (r *Req) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder
	return e.AppendString(b, r.String())
}

func (r *Register) String() string {
	if r == nil {
		return "<nil>"
	}

	return r.Name
}

func positions(mask uint32) string {
	s := ""

	for i := 0; i < 32; i++ {
		if mask&(1<<i) == 0 {
			continue
		}

		if s != "" {
			s += ","
		}

		s += fmt.Sprintf("in%d", i)
	}

	return s
}

func (i *Info) BackInfo() *Info { return i }

// InfoOf returns register requirements of a target node, or nil.
func InfoOf(n *ir.Node) *Info {
	a, ok := n.Attr.(Attr)
	if !ok {
		return nil
	}

	return a.BackInfo()
}

// NewInfo makes Info with n operand and m result slots, all without requirements.
func NewInfo(in []*Req, outs int) *Info {
	i := &Info{
		In:  in,
		Out: make([]OutInfo, outs),
	}

	for j := range i.Out {
		i.Out[j].Req = NoReq
	}

	return i
}

func (i *Info) SetOutReq(pos int, r *Req) {
	i.Out[pos].Req = r
}

// SetOutReg fixes result pos to reg.
func (i *Info) SetOutReg(pos int, reg *Register) {
	i.Out[pos].Reg = reg
}

// OutReq returns the requirement of value v, which is either a single result node or a Proj of a tuple.
func OutReq(v *ir.Node) *Req {
	pos := 0

	if v.Op == ir.OpProj {
		pos = v.ProjNum()
		v = v.Pred()
	}

	info := InfoOf(v)
	if info == nil || pos >= len(info.Out) {
		return NoReq
	}

	return info.Out[pos].Req
}
