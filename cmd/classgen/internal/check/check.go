package check

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/broady/classgen"
	"github.com/broady/classgen/cmd/classgen/internal/clilog"
	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/js"
	"github.com/broady/classgen/jvm"
	"github.com/broady/classgen/target"
)

type Cmd struct {
	Program string `arg:"" help:"Resolved program (YAML)." type:"existingfile"`
	ECMA    int    `help:"JavaScript dialect (3 or 5)." name:"ecma" default:"5" enum:"3,5"`
	Verbose bool   `help:"Log per-class progress." short:"v"`
}

func (c *Cmd) Run() error {
	prog, err := ir.LoadFile(c.Program)
	if err != nil {
		return err
	}
	clilog.PrintWarnings(os.Stderr, prog.Warnings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	unit := classgen.NewUnit(prog, classgen.WithLogger(clilog.New(os.Stderr, c.Verbose)))
	emitters := []struct {
		name string
		em   target.Emitter
	}{
		{classgen.TargetJVM, jvm.NewWriter()},
		{classgen.TargetJS, js.NewWriter(c.ECMA >= 5)},
	}
	var diags classgen.Diagnostics
	for _, e := range emitters {
		for _, cls := range prog.Classes {
			ds := unit.LowerAndEmit(ctx, cls, e.em)
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, d := range ds {
				d.Target = e.name
			}
			diags = append(diags, ds...)
			if ds.FatalForUnit() {
				break
			}
		}
	}

	fmt.Printf("✓ %d classes checked for jvm and js\n", len(prog.AllClasses()))
	if len(diags) > 0 {
		clilog.PrintDiagnostics(os.Stderr, diags)
		return fmt.Errorf("%d diagnostics", len(diags))
	}
	fmt.Println("✓ All classes lowered")
	return nil
}
