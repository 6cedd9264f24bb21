package parse

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler/back/arm"
	"github.com/vrosnet/libfirm/compiler/ir"
)

type (
	State struct {
		files []file

		// externals are entities referenced but not defined, shared by all files.
		externals map[string]*ir.Entity
	}

	file struct {
		name string
		text []byte
	}

	// Program is the parsed input.
	Program struct {
		// Target is nil if no file sets it.
		Target *arm.Config

		Funcs []*ir.Graph
	}

	// SyntaxError is an input error at a line.
	SyntaxError struct {
		File string
		Line int
		Err  error
	}

	document struct {
		Target    yaml.Node  `yaml:"target"`
		Functions []funcSpec `yaml:"functions"`
	}

	funcSpec struct {
		Name      string `yaml:"name"`
		Signature `yaml:",inline"`

		Frame  []memberSpec `yaml:"frame"`
		Blocks []blockSpec  `yaml:"blocks"`
		Nodes  []nodeSpec   `yaml:"nodes"`

		line int
	}

	memberSpec struct {
		Name string `yaml:"name"`
		Type Type   `yaml:"type"`
	}

	blockSpec struct {
		Name  string   `yaml:"name"`
		Preds []string `yaml:"preds"`

		line int
	}

	nodeSpec struct {
		Name  string   `yaml:"name"`
		Op    string   `yaml:"op"`
		Mode  *Mode    `yaml:"mode"`
		Block string   `yaml:"block"`
		In    []string `yaml:"in"`

		Value    string     `yaml:"value"`
		Num      int        `yaml:"num"`
		Relation string     `yaml:"relation"`
		Entity   string     `yaml:"entity"`
		Sig      *Signature `yaml:"sig"`
		Load     *Mode      `yaml:"load"`
		Res      *Mode      `yaml:"res"`
		Size     int        `yaml:"size"`
		Builtin  string     `yaml:"builtin"`
		Outs     int        `yaml:"outs"`
		Table    []caseSpec `yaml:"table"`
		Keep     bool       `yaml:"keep"`

		line int
	}

	caseSpec struct {
		Min int64 `yaml:"min"`
		Max int64 `yaml:"max"`
		Pn  int   `yaml:"pn"`
	}
)

var (
	ErrUnknownName = errors.New("unknown name")
	ErrUnknownOp   = errors.New("unknown op")
	ErrBadNode     = errors.New("bad node")
)

func ParseFile(ctx context.Context, name string) (*Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	s := New()

	s.AddFile(name, data)

	return s.Parse(ctx)
}

func Parse(ctx context.Context, text []byte) (*Program, error) {
	s := New()

	s.AddFile("", text)

	return s.Parse(ctx)
}

func New() *State {
	return &State{
		externals: map[string]*ir.Entity{},
	}
}

func (s *State) AddFile(name string, text []byte) {
	s.files = append(s.files, file{name: name, text: text})
}

func (s *State) Parse(ctx context.Context) (p *Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "files", len(s.files))
	defer tr.Finish("err", &err)

	p = &Program{}

	docs := make([]document, len(s.files))
	funcs := map[string]*ir.Entity{}

	for i, f := range s.files {
		err = yaml.Unmarshal(f.text, &docs[i])
		if err != nil {
			return nil, errors.Wrap(err, "file %v", f.name)
		}

		if t := &docs[i].Target; t.Kind != 0 {
			cfg := arm.DefaultConfig()

			if err = t.Decode(&cfg); err != nil {
				return nil, SyntaxError{File: f.name, Line: t.Line, Err: err}
			}

			p.Target = &cfg
		}

		for _, fs := range docs[i].Functions {
			if _, ok := funcs[fs.Name]; ok || fs.Name == "" {
				return nil, SyntaxError{File: f.name, Line: fs.line, Err: errors.Wrap(ErrBadNode, "function name %q", fs.Name)}
			}

			funcs[fs.Name] = ir.NewEntity(fs.Name, fs.Func())
		}
	}

	for i, f := range s.files {
		for j := range docs[i].Functions {
			fs := &docs[i].Functions[j]

			b := &builder{
				State: s,
				file:  f.name,
				funcs: funcs,
				nodes: map[string]*ir.Node{},
			}

			g, err := b.build(fs, funcs[fs.Name])
			if err != nil {
				return nil, errors.Wrap(err, "func %v", fs.Name)
			}

			tr.V("parse").Printw("function", "name", fs.Name, "nodes", g.Len())

			p.Funcs = append(p.Funcs, g)
		}
	}

	return p, nil
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e SyntaxError) Unwrap() error { return e.Err }

func (f *funcSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain funcSpec

	if err := value.Decode((*plain)(f)); err != nil {
		return err
	}

	f.line = value.Line

	return nil
}

func (b *blockSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain blockSpec

	if err := value.Decode((*plain)(b)); err != nil {
		return err
	}

	b.line = value.Line

	return nil
}

func (n *nodeSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain nodeSpec

	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}

	n.line = value.Line

	return nil
}
