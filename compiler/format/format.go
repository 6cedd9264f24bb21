package format

import (
	"context"
	"fmt"
	"sort"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/vrosnet/libfirm/compiler/back"
	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

var builtinNames = map[ir.Builtin]string{
	ir.BuiltinTrap:     "trap",
	ir.BuiltinClz:      "clz",
	ir.BuiltinCtz:      "ctz",
	ir.BuiltinPopcount: "popcount",
}

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ir.Graph:
		return formatGraph(ctx, b, x, d)
	case []*ir.Graph:
		for i, g := range x {
			if i != 0 {
				b = append(b, '\n')
			}

			b, err = formatGraph(ctx, b, g, d)
			if err != nil {
				return nil, errors.Wrap(err, "func %v", g.Name())
			}
		}

		return b, nil
	case *back.StackLayout:
		return formatLayout(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

// formatGraph lists reachable nodes grouped by block, both in id order.
func formatGraph(ctx context.Context, b []byte, g *ir.Graph, d int) (_ []byte, err error) {
	var blocks []*ir.Node
	nodes := map[*ir.Node][]*ir.Node{}

	ir.Walk(g, func(n *ir.Node) {
		if n.Op == ir.OpBlock {
			blocks = append(blocks, n)
			return
		}

		nodes[n.Block] = append(nodes[n.Block], n)
	}, nil)

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })

	b = app(b, d, "func %v%v {\n", g.Name(), signature(g.Type()))

	for i, blk := range blocks {
		if i != 0 {
			b = append(b, '\n')
		}

		b = app(b, d, "%v:", blk)

		if len(blk.In) != 0 {
			b = append(b, " <-"...)

			for _, p := range blk.In {
				b = hfmt.Appendf(b, " %v", p)
			}
		}

		b = append(b, '\n')

		list := nodes[blk]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

		for _, n := range list {
			b, err = formatNode(ctx, b, n, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "node %v", n)
			}
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatNode(ctx context.Context, b []byte, n *ir.Node, d int) ([]byte, error) {
	b = app(b, d, "%v:%v", n, n.Mode)

	if a := attr(n); a != "" {
		b = hfmt.Appendf(b, " [%s]", a)
	}

	if len(n.In) != 0 {
		b = append(b, " ("...)

		for i, x := range n.In {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = hfmt.Appendf(b, "%v", x)
		}

		b = append(b, ')')
	}

	if info := back.InfoOf(n); info != nil {
		b = append(b, " {"...)

		for i, r := range info.In {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = hfmt.Appendf(b, "%v", r)
		}

		b = append(b, "} -> {"...)

		for i, o := range info.Out {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = hfmt.Appendf(b, "%v", o.Req)

			if o.Reg != nil {
				b = hfmt.Appendf(b, "=%v", o.Reg)
			}

			if o.Ignore {
				b = append(b, '!')
			}
		}

		b = append(b, '}')
	}

	if n.Dbg != nil {
		b = hfmt.Appendf(b, "  # %v", n.Dbg)
	}

	b = append(b, '\n')

	return b, nil
}

func formatLayout(ctx context.Context, b []byte, l *back.StackLayout, d int) ([]byte, error) {
	base := 0

	for _, c := range l.Order() {
		b = app(b, d, "%v: offset %d size %d align %d\n", c.Name, base, c.Size, c.Align)

		for _, m := range c.Members {
			b = app(b, d+1, "%v %v at %d\n", m.Name, typeName(m.Type), m.Offset)
		}

		base += c.Size
	}

	return b, nil
}

func attr(n *ir.Node) string {
	switch a := n.Attr.(type) {
	case nil:
		return ""
	case int:
		// proj number is a part of the node name
		return ""
	case ir.ConstAttr:
		if n.Mode.IsFloat() {
			return fmt.Sprintf("%g", a.Float)
		}

		return fmt.Sprintf("%d", a.Int)
	case *ir.LoadAttr:
		return a.Mode.String()
	case *ir.StoreAttr:
		return ""
	case ir.DivAttr:
		return a.ResMode.String()
	case ir.CopyBAttr:
		return fmt.Sprintf("size=%d", a.Size)
	case ir.BuiltinAttr:
		return builtinNames[a.Kind] + signature(a.Type)
	case *tp.Func:
		return signature(a)
	case *ir.SwitchTable:
		s := fmt.Sprintf("outs=%d", a.Outs)

		for _, e := range a.Entries {
			s += fmt.Sprintf(" %d..%d:%d", e.Min, e.Max, e.Pn)
		}

		return s
	case fmt.Stringer:
		return a.String()
	default:
		return fmt.Sprintf("%v", a)
	}
}

func signature(f *tp.Func) string {
	if f == nil {
		return "()"
	}

	s := "("

	for i, t := range f.In {
		if i != 0 {
			s += ", "
		}

		s += typeName(t)
	}

	if f.Variadic {
		s += ", ..."
	}

	s += ")"

	switch len(f.Out) {
	case 0:
	case 1:
		s += " " + typeName(f.Out[0])
	default:
		s += " ("

		for i, t := range f.Out {
			if i != 0 {
				s += ", "
			}

			s += typeName(t)
		}

		s += ")"
	}

	return s
}

func typeName(t tp.Type) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", t)
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
