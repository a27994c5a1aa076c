package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tjit/compiler"
	"github.com/slowlang/tjit/compiler/format"
	"github.com/slowlang/tjit/compiler/opt"
	"github.com/slowlang/tjit/compiler/parse"
)

func main() {
	runCmd := &cli.Command{
		Name:        "run",
		Description: "record trace scripts, optimize and print the IR",
		Action:      runAct,
		Args:        cli.Args{},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse trace scripts and print the syntax tree",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	statsCmd := &cli.Command{
		Name:        "stats",
		Description: "print the opcode histogram of optimized traces",
		Action:      statsAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "tjit",
		Description: "tjit is a trace IR recorder and optimizer",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config,c", "", "yaml config file"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("no-dce", false, "disable dead code elimination"),
			cli.NewFlag("no-cse", false, "disable common subexpression elimination"),
			cli.NewFlag("no-fold", false, "disable constant folding"),
			cli.NewFlag("stats", false, "append the opcode histogram"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			runCmd,
			parseCmd,
			statsCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func config(c *cli.Command) (cfg compiler.Config, err error) {
	cfg = compiler.DefaultConfig()

	if name := c.String("config"); name != "" {
		cfg, err = compiler.LoadConfig(name)
		if err != nil {
			return cfg, err
		}
	}

	if c.Bool("no-dce") {
		cfg.IR.DCE = false
	}

	if c.Bool("no-cse") {
		cfg.IR.CSE = false
	}

	if c.Bool("no-fold") {
		cfg.IR.Fold = false
	}

	if c.Bool("stats") {
		cfg.Stats = true
	}

	return cfg, nil
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := config(c)
	if err != nil {
		return errors.Wrap(err, "config")
	}

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, cfg, a)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		fmt.Printf("---- TRACE %s\n%s", a, obj)
	}

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		x, _, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		fmt.Printf("%s: %d statements\n", a, len(x.Stmts))

		for _, s := range x.Stmts {
			fmt.Printf("%+v\n", *s)
		}
	}

	return nil
}

func statsAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := config(c)
	if err != nil {
		return errors.Wrap(err, "config")
	}

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		tr, err := compiler.Build(ctx, cfg, a, text)
		if err != nil {
			return errors.Wrap(err, "build %v", a)
		}

		opt.DCE(ctx, tr)

		fmt.Printf("---- TRACE %s\n%s", a, format.Stats(nil, tr))
	}

	return nil
}
