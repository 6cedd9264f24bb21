package main

import (
	"context"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/vrosnet/libfirm/compiler"
)

func main() {
	targetFlags := []*cli.Flag{
		cli.NewFlag("isa", "", "ARM variant: v4, v5, v5t, v6, v6t2, v7 (overrides the input target)"),
		cli.NewFlag("fpu", "", "floating point unit: fpa or soft (overrides the input target)"),
	}

	lowerCmd := &cli.Command{
		Name:        "lower",
		Description: "select ARM instructions for every function of the input files",
		Action:      lowerAct,
		Args:        cli.Args{},
		Flags: append(targetFlags,
			cli.NewFlag("layout", false, "print stack frame layouts"),
		),
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print input graphs",
		Action:      dumpAct,
		Args:        cli.Args{},
	}

	dagsCmd := &cli.Command{
		Name:        "dags",
		Description: "print data DAG statistics of input graphs",
		Action:      dagsAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "firm",
		Description: "firm is an ARM code generator for graph-based IR",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			lowerCmd,
			dumpCmd,
			dagsCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts := compiler.Options{
		Variant: c.String("isa"),
		FPU:     c.String("fpu"),
		Layout:  c.Bool("layout"),
	}

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		_, err = os.Stdout.Write(obj)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		b, err := compiler.Dump(ctx, a, text)
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func dagsAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		b, err := compiler.DAGsFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "dags %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}
