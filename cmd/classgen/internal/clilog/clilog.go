// Package clilog holds the output helpers shared by the classgen commands.
package clilog

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/broady/classgen"
	"github.com/broady/classgen/ir"
)

// New returns a text logger on w. Verbose enables debug records.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// PrintDiagnostics writes one line per diagnostic.
func PrintDiagnostics(w io.Writer, diags classgen.Diagnostics) {
	for _, d := range diags {
		if d.Target != "" {
			fmt.Fprintf(w, "✗ [%s] %s\n", d.Target, d)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", d)
	}
}

// PrintWarnings writes the warnings recorded while loading a program.
func PrintWarnings(w io.Writer, warnings []ir.Warning) {
	for _, wr := range warnings {
		fmt.Fprintf(w, "! %s: %s: %s\n", wr.Code, wr.Subject, wr.Message)
	}
}
