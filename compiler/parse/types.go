package parse

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

type (
	// Type is a value type written as i8..i64, u8..u64, f32, f64 or ptr.
	Type struct {
		tp.Type
	}

	// Mode is an ir mode written by its name.
	Mode struct {
		*ir.Mode
	}

	// Signature is a function type.
	Signature struct {
		Params  []Type `yaml:"params"`
		Results []Type `yaml:"results"`
	}
)

var ErrUnknownType = errors.New("unknown type")

func ParseType(s string) (tp.Type, error) {
	switch s {
	case "ptr":
		return tp.Ptr{}, nil
	case "f32":
		return tp.Float{Bits: 32}, nil
	case "f64":
		return tp.Float{Bits: 64}, nil
	}

	if len(s) < 2 || s[0] != 'i' && s[0] != 'u' {
		return nil, errors.Wrap(ErrUnknownType, "%q", s)
	}

	bits, err := strconv.Atoi(s[1:])
	if err != nil {
		return nil, errors.Wrap(ErrUnknownType, "%q", s)
	}

	switch bits {
	case 8, 16, 32, 64:
	default:
		return nil, errors.Wrap(ErrUnknownType, "%q", s)
	}

	return tp.Int{Bits: int16(bits), Signed: s[0] == 'i'}, nil
}

func (t *Type) UnmarshalYAML(value *yaml.Node) (err error) {
	var s string

	if err = value.Decode(&s); err != nil {
		return err
	}

	t.Type, err = ParseType(strings.TrimSpace(s))

	return err
}

func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string

	if err := value.Decode(&s); err != nil {
		return err
	}

	m.Mode = ir.ModeByName(s)
	if m.Mode == nil {
		return errors.New("line %d: unknown mode %q", value.Line, s)
	}

	return nil
}

func (s Signature) Func() *tp.Func {
	f := &tp.Func{}

	for _, p := range s.Params {
		f.In = append(f.In, p.Type)
	}

	for _, r := range s.Results {
		f.Out = append(f.Out, r.Type)
	}

	return f
}
