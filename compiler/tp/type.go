package tp

import "fmt"

type (
	Type interface {
		Size() int
	}

	Func struct {
		In  []Type
		Out []Type

		Variadic bool
	}

	Int struct {
		Bits   int16
		Signed bool
	}

	Float struct {
		Bits int16
	}

	Ptr struct {
		X Type
	}

	Array struct {
		X   Type
		Len int
	}

	Struct struct {
		Fields []StructField
	}

	StructField struct {
		Name   string
		Offset int
		Type   Type
	}
)

func (x Int) Size() int {
	return int(x.Bits) / 8
}

func (x Float) Size() int {
	return int(x.Bits) / 8
}

func (x Ptr) Size() int {
	return 4
}

func (x Array) Size() int {
	return x.X.Size() * x.Len
}

func (x Struct) Size() (s int) {
	for _, f := range x.Fields {
		if e := f.Offset + f.Type.Size(); e > s {
			s = e
		}
	}

	return s
}

func (x *Func) Size() int {
	return 4
}

func (x Int) String() string {
	if x.Signed {
		return fmt.Sprintf("i%d", x.Bits)
	}

	return fmt.Sprintf("u%d", x.Bits)
}

func (x Float) String() string {
	return fmt.Sprintf("f%d", x.Bits)
}

func (x Ptr) String() string {
	return "ptr"
}

// Align is the natural alignment of t.
func Align(t Type) int {
	switch t := t.(type) {
	case Array:
		return Align(t.X)
	case Struct:
		a := 1

		for _, f := range t.Fields {
			if fa := Align(f.Type); fa > a {
				a = fa
			}
		}

		return a
	}

	s := t.Size()
	if s == 0 {
		return 1
	}

	return s
}

func IsCompound(t Type) bool {
	switch t.(type) {
	case Struct, Array:
		return true
	}

	return false
}
