package gen

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/broady/classgen"
	"github.com/broady/classgen/cmd/classgen/internal/clilog"
	"github.com/broady/classgen/ir"
)

type Cmd struct {
	Program  string   `arg:"" help:"Resolved program (YAML)." type:"existingfile"`
	Out      string   `help:"Output directory for generated files." short:"o"`
	Config   string   `help:"TOML configuration file." short:"c" type:"existingfile"`
	Set      []string `help:"Override a configuration key (key=value)." short:"s"`
	Target   []string `help:"Targets to emit (jvm, js)." short:"t"`
	ECMA     int      `help:"JavaScript dialect (3 or 5)." name:"ecma"`
	Listing  bool     `help:"Also write a text listing for every JVM class."`
	Manifest bool     `help:"Write manifest.json."`
	Verbose  bool     `help:"Log per-class progress." short:"v"`
}

func (c *Cmd) Run() error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	cfg.Logger = clilog.New(os.Stderr, c.Verbose)

	prog, err := ir.LoadFile(c.Program)
	if err != nil {
		return err
	}
	clilog.PrintWarnings(os.Stderr, prog.Warnings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := classgen.Generate(ctx, prog, cfg)
	if err != nil {
		return err
	}

	clilog.PrintDiagnostics(os.Stderr, res.Diagnostics)
	fmt.Printf("✓ Wrote %d files to %s\n", len(res.Files), cfg.OutDir)
	if n := len(res.Diagnostics); n > 0 {
		return fmt.Errorf("%d classes failed to lower", n)
	}
	return nil
}

// config merges the configuration file, flags and overrides, in that order.
func (c *Cmd) config() (classgen.Config, error) {
	var cfg classgen.Config
	if c.Config != "" {
		var err error
		if cfg, err = classgen.LoadConfig(c.Config); err != nil {
			return cfg, err
		}
	}
	if len(c.Target) > 0 {
		cfg.Targets = c.Target
	}
	if c.ECMA != 0 {
		cfg.ECMAVersion = c.ECMA
	}
	if c.Out != "" {
		cfg.OutDir = c.Out
	}
	cfg.Listing = cfg.Listing || c.Listing
	cfg.Manifest = cfg.Manifest || c.Manifest
	if err := cfg.Set(c.Set); err != nil {
		return cfg, err
	}
	if cfg.OutDir == "" {
		return cfg, fmt.Errorf("no output directory: pass --out or set out_dir")
	}
	out, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return cfg, fmt.Errorf("resolve output path: %w", err)
	}
	cfg.OutDir = out
	return cfg, nil
}
