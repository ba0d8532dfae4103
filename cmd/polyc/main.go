// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gopkg.in/urfave/cli.v1"

	"polyc/internal/cfg"
	"polyc/internal/compiler"
	"polyc/internal/errors"
	"polyc/internal/target"
)

var version = "0.1.0"

var (
	targetFlag = cli.StringFlag{
		Name:  "target, t",
		Usage: "execution environment to compile for",
		Value: target.DefaultName,
	}
	targetFileFlag = cli.StringFlag{
		Name:  "target-file",
		Usage: "TOML file with additional or overriding target profiles",
	}
	jobsFlag = cli.IntFlag{
		Name:  "jobs, j",
		Usage: "number of files resolved in parallel (0 = one per CPU)",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "log compiler passes",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored diagnostics",
	}
	emitCFGFlag = cli.BoolFlag{
		Name:  "emit-cfg",
		Usage: "print the control flow graph of every function",
	}
	functionFlag = cli.StringFlag{
		Name:  "function, f",
		Usage: "only print the CFG of the named function (C.f)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "polyc"
	app.Usage = "compile contracts to a target-agnostic CFG"
	app.Version = version
	app.Flags = []cli.Flag{targetFlag, targetFileFlag, jobsFlag, verboseFlag, noColorFlag}
	app.Before = func(ctx *cli.Context) error {
		verbosity := -2
		if ctx.GlobalBool(verboseFlag.Name) {
			// 1 = debug level
			verbosity = 1
		}
		commonlog.Configure(verbosity, nil)
		if ctx.GlobalBool(noColorFlag.Name) {
			color.NoColor = true
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "build",
			Usage:     "resolve and lower source files",
			ArgsUsage: "<file.sol>...",
			Flags:     []cli.Flag{emitCFGFlag, functionFlag},
			Action:    build,
		},
		{
			Name:      "check",
			Usage:     "report diagnostics without lowering",
			ArgsUsage: "<file.sol>...",
			Action:    check,
		},
		{
			Name:   "targets",
			Usage:  "list the available targets",
			Action: listTargets,
		},
		{
			Name:      "explain",
			Usage:     "describe diagnostic codes",
			ArgsUsage: "<code>...",
			Action:    explain,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("error"), err)
		os.Exit(1)
	}
}

func build(ctx *cli.Context) error {
	start := time.Now()
	files, res, err := run(ctx, false)
	if err != nil {
		return err
	}
	if ctx.Bool(emitCFGFlag.Name) || ctx.String(functionFlag.Name) != "" {
		if err := printCFGs(res, ctx.String(functionFlag.Name)); err != nil {
			return err
		}
	}
	return finish(files, res, start)
}

func check(ctx *cli.Context) error {
	start := time.Now()
	files, res, err := run(ctx, true)
	if err != nil {
		return err
	}
	return finish(files, res, start)
}

func run(ctx *cli.Context, skipLowering bool) ([]compiler.Source, *compiler.Result, error) {
	if ctx.NArg() == 0 {
		return nil, nil, pkgerrors.New("no input files")
	}
	tg, err := selectTarget(ctx)
	if err != nil {
		return nil, nil, err
	}
	files, err := readSources(ctx.Args())
	if err != nil {
		return nil, nil, err
	}
	res, err := compiler.Compile(context.Background(), files, compiler.Options{
		Target:       tg,
		Jobs:         ctx.GlobalInt(jobsFlag.Name),
		SkipLowering: skipLowering,
	})
	if err != nil {
		return nil, nil, err
	}
	return files, res, nil
}

func selectTarget(ctx *cli.Context) (*target.Target, error) {
	reg, err := target.NewRegistry()
	if err != nil {
		return nil, err
	}
	if path := ctx.GlobalString(targetFileFlag.Name); path != "" {
		if err := reg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return reg.Get(ctx.GlobalString(targetFlag.Name))
}

func readSources(paths []string) ([]compiler.Source, error) {
	files := make([]compiler.Source, len(paths))
	for i, path := range paths {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to read file")
		}
		files[i] = compiler.Source{Path: path, Text: string(data)}
	}
	return files, nil
}

func printCFGs(res *compiler.Result, only string) error {
	var fns []*cfg.Function
	for _, u := range res.Units {
		for _, f := range u.Functions {
			if only == "" || f.Name == only {
				fns = append(fns, f)
			}
		}
	}
	if only != "" && len(fns) == 0 {
		return pkgerrors.Errorf("no function named %s", only)
	}
	fmt.Print(cfg.PrintAll(fns))
	return nil
}

// finish prints the diagnostics and a summary, failing when any error
// was reported
func finish(files []compiler.Source, res *compiler.Result, start time.Time) error {
	var reporter *errors.ErrorReporter
	for _, f := range res.Units {
		if reporter == nil {
			reporter = errors.NewErrorReporter(f.Path, f.Source)
			continue
		}
		reporter.AddSource(f.Path, f.Source)
	}
	if reporter != nil {
		fmt.Fprint(os.Stderr, reporter.FormatAll(res.Diagnostics))
	}

	duration := formatDuration(time.Since(start))
	if res.HasErrors() {
		return cli.NewExitError(color.RedString("Compilation failed after %s", duration), 1)
	}
	color.Green("Successfully processed %d file(s) in %s", len(files), duration)
	return nil
}

func explain(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("explain needs at least one diagnostic code", 2)
	}
	for _, code := range ctx.Args() {
		text, err := errors.Explain(code)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		fmt.Print(text)
	}
	return nil
}

func listTargets(ctx *cli.Context) error {
	reg, err := target.NewRegistry()
	if err != nil {
		return err
	}
	if path := ctx.GlobalString(targetFileFlag.Name); path != "" {
		if err := reg.LoadFile(path); err != nil {
			return err
		}
	}
	bold := color.New(color.Bold).SprintFunc()
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		fmt.Printf("%s  word %d, address %d, selector %d bytes\n", bold(name), t.WordBits(), t.AddressBits(), t.SelectorBytes())
		if !t.SelectorDocumented {
			fmt.Println(color.YellowString("  selector width is not documented by the target ABI"))
		}
		var ops []string
		for _, b := range t.Builtins() {
			op, _ := t.BuiltinOp(b)
			ops = append(ops, b+" -> "+op)
		}
		fmt.Printf("  %s\n", strings.Join(ops, "\n  "))
	}
	return nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
