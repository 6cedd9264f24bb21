package back

import (
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	// StackLayout places frame storage into three consecutive regions,
	// from the stack pointer up: locals, between and incoming arguments.
	StackLayout struct {
		Frame   *ir.Compound
		Between *ir.Compound
		Args    *ir.Compound

		InitialOffset int
		InitialBias   int
		SPRelative    bool
	}
)

func NewStackLayout(frame, between, args *ir.Compound) *StackLayout {
	return &StackLayout{
		Frame:      frame,
		Between:    between,
		Args:       args,
		SPRelative: true,
	}
}

// Order lists the regions from the lowest address.
func (l *StackLayout) Order() [3]*ir.Compound {
	return [3]*ir.Compound{l.Frame, l.Between, l.Args}
}

// Layout assigns offsets to region members which have none.
func (l *StackLayout) Layout() {
	for _, c := range l.Order() {
		if !c.Layouted {
			c.Layout()
		}
	}
}

// Offset of ent relative to the stack pointer at function entry plus the frame size.
func (l *StackLayout) Offset(ent *ir.Entity) int {
	base := 0

	for _, c := range l.Order() {
		if ent.Owner == c {
			if ent.Offset < 0 {
				Fatalf(nil, "entity %v is not laid out", ent)
			}

			return base + ent.Offset
		}

		base += c.Size
	}

	Fatalf(nil, "entity %v is not on the stack frame", ent)

	return 0
}

// Size of all regions together.
func (l *StackLayout) Size() (s int) {
	for _, c := range l.Order() {
		s += c.Size
	}

	return s
}
