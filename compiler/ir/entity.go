package ir

import (
	"github.com/vrosnet/libfirm/compiler/tp"
)

type (
	Entity struct {
		Name  string
		Type  tp.Type
		Owner *Compound

		// Offset within Owner, -1 if not yet assigned.
		Offset int

		TLS bool
	}

	Compound struct {
		Name    string
		Members []*Entity

		Size     int
		Align    int
		Layouted bool
	}
)

func NewEntity(name string, t tp.Type) *Entity {
	return &Entity{Name: name, Type: t, Offset: -1}
}

func NewCompound(name string) *Compound {
	return &Compound{Name: name, Align: 1}
}

func (c *Compound) NewMember(name string, t tp.Type) *Entity {
	e := NewEntity(name, t)
	e.Owner = c

	c.Members = append(c.Members, e)
	c.Layouted = false

	return e
}

// Layout assigns offsets to members without one, in member order.
func (c *Compound) Layout() {
	size := c.Size

	for _, m := range c.Members {
		a := tp.Align(m.Type)
		if a > c.Align {
			c.Align = a
		}

		if m.Offset < 0 {
			size = alignUp(size, a)
			m.Offset = size
		}

		if e := m.Offset + m.Type.Size(); e > size {
			size = e
		}
	}

	c.Size = alignUp(size, c.Align)
	c.Layouted = true
}

func (e *Entity) String() string {
	if e == nil {
		return "<nil>"
	}

	return e.Name
}

func alignUp(x, a int) int {
	if a <= 1 {
		return x
	}

	return (x + a - 1) / a * a
}
