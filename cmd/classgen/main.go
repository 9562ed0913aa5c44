package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/broady/classgen/cmd/classgen/internal/check"
	"github.com/broady/classgen/cmd/classgen/internal/gen"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Lower a resolved program and write JVM and JS artifacts."`
	Check   check.Cmd  `cmd:"" help:"Lower a resolved program without writing files and report diagnostics."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("classgen"),
		kong.Description("Lower resolved Kotlin programs to JVM class models and JavaScript."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
