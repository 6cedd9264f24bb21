package compiler

import (
	"context"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler/back/arm"
	"github.com/vrosnet/libfirm/compiler/format"
	"github.com/vrosnet/libfirm/compiler/parse"
	"github.com/vrosnet/libfirm/compiler/stat"
)

type (
	// Options override the target of the input file if set.
	Options struct {
		Variant string
		FPU     string

		// Layout appends the stack frame layout of each function.
		Layout bool
	}
)

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile lowers every function of the input to ARM and returns the listing.
func Compile(ctx context.Context, name string, text []byte, opts Options) (obj []byte, err error) {
	p, err := parseText(ctx, name, text)
	if err != nil {
		return nil, err
	}

	cfg, err := target(p, opts)
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).Printw("target", "variant", cfg.Variant, "fpu", cfg.FPU, "funcs", len(p.Funcs))

	for i, g := range p.Funcs {
		l, err := arm.TransformGraph(ctx, g, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "lower")
		}

		if i != 0 {
			obj = append(obj, '\n')
		}

		obj, err = format.Format(ctx, obj, l.Graph)
		if err != nil {
			return nil, errors.Wrap(err, "format %v", g.Name())
		}

		if !opts.Layout {
			continue
		}

		obj, err = format.Format(ctx, obj, l.Layout)
		if err != nil {
			return nil, errors.Wrap(err, "format layout %v", g.Name())
		}
	}

	return obj, nil
}

func DAGsFile(ctx context.Context, name string) ([]byte, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return DAGs(ctx, name, text)
}

// DAGs reports the data DAGs of every function of the input.
func DAGs(ctx context.Context, name string, text []byte) (b []byte, err error) {
	p, err := parseText(ctx, name, text)
	if err != nil {
		return nil, err
	}

	for _, g := range p.Funcs {
		dags := stat.CountDAGs(ctx, g, stat.DefaultOptions)

		b = hfmt.Appendf(b, "func %v: %d dags\n", g.Name(), len(dags))

		for _, d := range dags {
			b = hfmt.Appendf(b, "\tdag %d: roots %d nodes %d inner %d tree %v root %v\n",
				d.ID, d.Roots, d.Nodes, d.Inner, d.Tree, d.Root)
		}
	}

	return b, nil
}

func parseText(ctx context.Context, name string, text []byte) (*parse.Program, error) {
	st := parse.New()

	st.AddFile(name, text)

	p, err := st.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return p, nil
}

func target(p *parse.Program, opts Options) (cfg arm.Config, err error) {
	cfg = arm.DefaultConfig()

	if p.Target != nil {
		cfg = *p.Target
	}

	if opts.Variant != "" {
		cfg.Variant, err = arm.ParseVariant(opts.Variant)
		if err != nil {
			return cfg, errors.Wrap(err, "variant")
		}
	}

	if opts.FPU != "" {
		cfg.FPU, err = arm.ParseFPU(opts.FPU)
		if err != nil {
			return cfg, errors.Wrap(err, "fpu")
		}
	}

	return cfg, nil
}

// Dump returns the listing of the input graphs as they were read.
func Dump(ctx context.Context, name string, text []byte) ([]byte, error) {
	p, err := parseText(ctx, name, text)
	if err != nil {
		return nil, err
	}

	return format.Format(ctx, nil, p.Funcs)
}
