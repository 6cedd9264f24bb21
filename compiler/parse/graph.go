package parse

import (
	"strconv"

	"tlog.app/go/errors"

	"github.com/vrosnet/libfirm/compiler/ir"
	"github.com/vrosnet/libfirm/compiler/tp"
)

type builder struct {
	*State

	file string
	g    *ir.Graph

	funcs  map[string]*ir.Entity
	blocks map[string]*ir.Node
	nodes  map[string]*ir.Node
}

var builtins = map[string]ir.Builtin{
	"trap":     ir.BuiltinTrap,
	"clz":      ir.BuiltinClz,
	"ctz":      ir.BuiltinCtz,
	"popcount": ir.BuiltinPopcount,
}

// defaultModes are result modes of ops which have only one.
var defaultModes = map[ir.Op]*ir.Mode{
	ir.OpAddress: ir.ModeP,
	ir.OpMember:  ir.ModeP,
	ir.OpDiv:     ir.ModeT,
	ir.OpCmp:     ir.Modeb,
	ir.OpCond:    ir.ModeT,
	ir.OpJmp:     ir.ModeX,
	ir.OpSwitch:  ir.ModeT,
	ir.OpLoad:    ir.ModeT,
	ir.OpStore:   ir.ModeT,
	ir.OpCall:    ir.ModeT,
	ir.OpReturn:  ir.ModeX,
	ir.OpSync:    ir.ModeM,
	ir.OpBuiltin: ir.ModeT,
	ir.OpCopyB:   ir.ModeM,
}

func (b *builder) errorf(line int, err error, format string, args ...any) error {
	return SyntaxError{
		File: b.file,
		Line: line,
		Err:  errors.Wrap(err, format, args...),
	}
}

func (b *builder) build(fs *funcSpec, ent *ir.Entity) (*ir.Graph, error) {
	b.g = ir.NewGraph(ent)

	b.nodes["start"] = b.g.Start()
	b.nodes["mem"] = b.g.InitialMem()
	b.nodes["frame"] = b.g.Frame()
	b.nodes["args"] = b.g.Args()
	b.nodes["nomem"] = b.g.NoMem()

	b.blocks = map[string]*ir.Node{
		"start": b.g.StartBlock(),
		"end":   b.g.EndBlock(),
	}

	for _, m := range fs.Frame {
		for _, x := range b.g.FrameType.Members {
			if x.Name == m.Name {
				return nil, b.errorf(fs.line, ErrBadNode, "frame member %q redefined", m.Name)
			}
		}

		b.g.FrameType.NewMember(m.Name, m.Type.Type)
	}

	for _, bs := range fs.Blocks {
		if _, ok := b.blocks[bs.Name]; ok || bs.Name == "" {
			return nil, b.errorf(bs.line, ErrBadNode, "block name %q", bs.Name)
		}

		b.blocks[bs.Name] = b.g.NewBlock()
	}

	for i := range fs.Nodes {
		if err := b.newNode(&fs.Nodes[i]); err != nil {
			return nil, err
		}
	}

	for i := range fs.Nodes {
		if err := b.link(&fs.Nodes[i]); err != nil {
			return nil, err
		}
	}

	for i := range fs.Nodes {
		projBlock(b.nodes[fs.Nodes[i].Name])
	}

	for _, bs := range fs.Blocks {
		blk := b.blocks[bs.Name]

		for _, p := range bs.Preds {
			x, ok := b.nodes[p]
			if !ok {
				return nil, b.errorf(bs.line, ErrUnknownName, "block %v pred %q", bs.Name, p)
			}

			blk.AddIn(x)
		}
	}

	for i := range fs.Nodes {
		ns := &fs.Nodes[i]
		n := b.nodes[ns.Name]

		if n.Op == ir.OpPhi && len(n.In) != len(n.Block.In) {
			return nil, b.errorf(ns.line, ErrBadNode, "phi %v has %d operands for %d preds", ns.Name, len(n.In), len(n.Block.In))
		}
	}

	return b.g, nil
}

func (b *builder) newNode(ns *nodeSpec) error {
	if ns.Name == "" {
		return b.errorf(ns.line, ErrBadNode, "no name")
	}

	if _, ok := b.nodes[ns.Name]; ok {
		return b.errorf(ns.line, ErrBadNode, "%q redefined", ns.Name)
	}

	op, ok := ir.OpByName(ns.Op)
	if !ok {
		return b.errorf(ns.line, ErrUnknownOp, "%q", ns.Op)
	}

	switch op {
	case ir.OpBlock, ir.OpStart, ir.OpEnd, ir.OpNoMem:
		return b.errorf(ns.line, ErrBadNode, "%v is implicit", op)
	}

	var block *ir.Node

	switch {
	case ns.Block == "" && op == ir.OpProj:
		// the block of the tuple, set in build
	case ns.Block == "":
		block = b.g.StartBlock()
	default:
		block, ok = b.blocks[ns.Block]
		if !ok || ns.Block == "end" {
			return b.errorf(ns.line, ErrUnknownName, "block %q", ns.Block)
		}
	}

	var mode *ir.Mode

	if ns.Mode != nil {
		mode = ns.Mode.Mode
	} else if mode = defaultModes[op]; mode == nil {
		return b.errorf(ns.line, ErrBadNode, "mode expected for %v", op)
	}

	attr, err := b.attr(ns, op, mode)
	if err != nil {
		return b.errorf(ns.line, err, "%v", ns.Name)
	}

	n := b.g.NewNode(block, op, mode, attr)
	n.Dbg = &ir.DebugInfo{File: b.file, Line: ns.line}

	b.nodes[ns.Name] = n

	return nil
}

func (b *builder) attr(ns *nodeSpec, op ir.Op, mode *ir.Mode) (any, error) {
	switch op {
	case ir.OpConst:
		return parseConst(ns.Value, mode)
	case ir.OpProj:
		return ns.Num, nil
	case ir.OpCmp:
		r, ok := ir.ParseRelation(ns.Relation)
		if !ok {
			return nil, errors.Wrap(ErrBadNode, "relation %q", ns.Relation)
		}

		return r, nil
	case ir.OpAddress:
		return b.entity(ns), nil
	case ir.OpMember:
		for _, m := range b.g.FrameType.Members {
			if m.Name == ns.Entity {
				return m, nil
			}
		}

		return nil, errors.Wrap(ErrUnknownName, "frame member %q", ns.Entity)
	case ir.OpLoad:
		if ns.Load == nil {
			return nil, errors.Wrap(ErrBadNode, "load mode expected")
		}

		return &ir.LoadAttr{Mode: ns.Load.Mode}, nil
	case ir.OpStore:
		return &ir.StoreAttr{}, nil
	case ir.OpDiv:
		if ns.Res == nil {
			return nil, errors.Wrap(ErrBadNode, "result mode expected")
		}

		return ir.DivAttr{ResMode: ns.Res.Mode}, nil
	case ir.OpCall:
		if ns.Sig != nil {
			return ns.Sig.Func(), nil
		}

		// taken from the callee in link
		return nil, nil
	case ir.OpSwitch:
		tab := &ir.SwitchTable{Outs: ns.Outs}

		for _, c := range ns.Table {
			if c.Pn <= 0 || c.Pn >= ns.Outs {
				return nil, errors.Wrap(ErrBadNode, "switch case pn %d of %d outs", c.Pn, ns.Outs)
			}

			tab.Entries = append(tab.Entries, ir.SwitchEntry{Min: c.Min, Max: c.Max, Pn: c.Pn})
		}

		return tab, nil
	case ir.OpBuiltin:
		k, ok := builtins[ns.Builtin]
		if !ok {
			return nil, errors.Wrap(ErrBadNode, "builtin %q", ns.Builtin)
		}

		t := &tp.Func{}
		if ns.Sig != nil {
			t = ns.Sig.Func()
		}

		return ir.BuiltinAttr{Kind: k, Type: t}, nil
	case ir.OpCopyB:
		return ir.CopyBAttr{Size: ns.Size}, nil
	}

	return nil, nil
}

// entity is a function of the program or an external symbol.
func (b *builder) entity(ns *nodeSpec) *ir.Entity {
	if e, ok := b.funcs[ns.Entity]; ok {
		return e
	}

	if e, ok := b.externals[ns.Entity]; ok {
		return e
	}

	var t tp.Type = &tp.Func{}
	if ns.Sig != nil {
		t = ns.Sig.Func()
	}

	e := ir.NewEntity(ns.Entity, t)
	b.externals[ns.Entity] = e

	return e
}

// projBlock places a Proj without an explicit block into the block of its tuple.
func projBlock(n *ir.Node) *ir.Node {
	if n.Block == nil && n.Op == ir.OpProj {
		n.Block = n.Graph().StartBlock() // ends proj cycles
		n.Block = projBlock(n.In[0])
	}

	return n.Block
}

func parseConst(s string, mode *ir.Mode) (ir.ConstAttr, error) {
	if mode.IsFloat() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ir.ConstAttr{}, errors.Wrap(err, "const value")
		}

		return ir.ConstAttr{Float: f}, nil
	}

	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return ir.ConstAttr{Int: v}, nil
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return ir.ConstAttr{}, errors.Wrap(err, "const value")
	}

	return ir.ConstAttr{Int: int64(v)}, nil
}

// link resolves operands after every node is created, so loops may refer forward.
func (b *builder) link(ns *nodeSpec) error {
	n := b.nodes[ns.Name]

	for _, name := range ns.In {
		x, ok := b.nodes[name]
		if !ok {
			return b.errorf(ns.line, ErrUnknownName, "%v operand %q", ns.Name, name)
		}

		n.AddIn(x)
	}

	switch n.Op {
	case ir.OpProj:
		if len(n.In) != 1 {
			return b.errorf(ns.line, ErrBadNode, "proj %v has %d operands", ns.Name, len(n.In))
		}
	case ir.OpCall:
		if len(n.In) < ir.CallArg {
			return b.errorf(ns.line, ErrBadNode, "call %v needs memory and callee", ns.Name)
		}

		if n.Attr != nil {
			break
		}

		callee := n.In[ir.CallPtr]
		if callee.Op != ir.OpAddress {
			return b.errorf(ns.line, ErrBadNode, "indirect call %v needs sig", ns.Name)
		}

		f, ok := callee.Entity().Type.(*tp.Func)
		if !ok {
			return b.errorf(ns.line, ErrBadNode, "callee %v is not a function", callee.Entity())
		}

		n.Attr = f
	case ir.OpReturn:
		b.g.EndBlock().AddIn(n)
	}

	if ns.Keep {
		b.g.KeepAlive(n)
	}

	return nil
}
