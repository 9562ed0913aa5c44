package classgen

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/synth"
)

// Code is a machine-readable diagnostic code.
type Code string

const (
	CodeUnresolved          Code = "unresolved"           // The binding oracle could not answer a query
	CodeAmbiguousDelegation Code = "ambiguous_delegation" // More than one interface body to delegate to
	CodeUnsupported         Code = "unsupported"          // A construct the backend cannot compile
	CodeEmit                Code = "emit"                 // The emitter rejected a definition
	CodeInternal            Code = "internal"
)

// FatalForUnit reports whether a diagnostic with code c aborts the whole
// compilation unit rather than only the class it is attached to.
func (c Code) FatalForUnit() bool {
	return c == CodeUnresolved || c == CodeInternal
}

// Diagnostic is a fatal condition attached to the declaration it arose in.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	// Declaration is the fully-qualified name of the class.
	Declaration string `json:"declaration"`

	// Member names the member, or is empty for class-level conditions.
	Member string `json:"member,omitempty"`

	Details map[string]any `json:"details,omitempty"`

	// Target names the target being lowered when the run covers several.
	Target string `json:"target,omitempty"`

	err error
}

func (d *Diagnostic) Error() string {
	subject := d.Declaration
	if d.Member != "" {
		subject += "." + d.Member
	}
	return fmt.Sprintf("%s: %s: %s", d.Code, subject, d.Message)
}

// Unwrap returns the error the diagnostic was classified from.
func (d *Diagnostic) Unwrap() error { return d.err }

// WithDetail returns a copy of d with key set in its details.
func (d *Diagnostic) WithDetail(key string, value any) *Diagnostic {
	details := make(map[string]any, len(d.Details)+1)
	maps.Copy(details, d.Details)
	details[key] = value
	c := *d
	c.Details = details
	return &c
}

// Diagnostics lists the diagnostics of one lowering call.
type Diagnostics []*Diagnostic

// Err joins the diagnostics into one error, or returns nil.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// FatalForUnit reports whether any diagnostic aborts the unit.
func (ds Diagnostics) FatalForUnit() bool {
	for _, d := range ds {
		if d.Code.FatalForUnit() {
			return true
		}
	}
	return false
}

// String renders one diagnostic per line.
func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// classify maps a lowering error to a diagnostic of class decl. It returns
// nil for cancellation.
func classify(decl string, err error) *Diagnostic {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return d
	}
	out := &Diagnostic{Declaration: decl, Message: err.Error(), err: err}

	var me *synth.MemberError
	if errors.As(err, &me) {
		out.Declaration, out.Member = me.Class, me.Member
		out.Message = me.Reason
		if out.Message == "" {
			out.Message = me.Err.Error()
		}
		if len(me.Candidates) > 0 {
			out = out.WithDetail("candidates", me.Candidates)
		}
	}
	var ue *ir.UnresolvedError
	if errors.As(err, &ue) {
		out = out.WithDetail("query", ue.What).WithDetail("subject", ue.Subject)
	}

	switch {
	case errors.Is(err, ir.ErrUnresolved):
		out.Code = CodeUnresolved
	case errors.Is(err, synth.ErrAmbiguousDelegation):
		out.Code = CodeAmbiguousDelegation
	case errors.Is(err, synth.ErrUnsupported):
		out.Code = CodeUnsupported
	case errors.Is(err, errEmit):
		out.Code = CodeEmit
	default:
		out.Code = CodeInternal
	}
	return out
}

// errEmit marks failures reported by the emitter.
var errEmit = errors.New("emitter rejected definition")

// emitError wraps an emitter failure for classification.
func emitError(err error) error {
	return fmt.Errorf("%w: %w", errEmit, err)
}
