package ir

import (
	"errors"
	"fmt"
)

// ErrUnresolved marks a query the binding oracle could not answer. Any
// such miss is an upstream contract violation.
var ErrUnresolved = errors.New("unresolved binding")

// UnresolvedError describes a missing binding.
type UnresolvedError struct {
	What    string // "call target", "expression type", "class"
	Subject string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s missing for %s", ErrUnresolved, e.What, e.Subject)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// Oracle answers resolution queries about a program. It is read-only.
type Oracle interface {
	// TypeOf returns the resolved type of an expression.
	TypeOf(e Expr) (*Type, bool)

	// ResolvedCall returns the target of a call site and its matched arguments.
	ResolvedCall(c *Call) (*ResolvedCall, bool)

	// OverriddenOf returns the members directly overridden by m.
	OverriddenOf(m Member) []Member

	// ClosureOf returns the captured bindings of a class. Never nil.
	ClosureOf(c *Class) *Closure

	// ConstantOf returns the compile-time constant value of an expression.
	ConstantOf(e Expr) (Constant, bool)

	// Class looks up a class by fully-qualified name.
	Class(name string) (*Class, bool)
}

// ResolvedCall is the resolution of a call site.
type ResolvedCall struct {
	// Exactly one of Function and Constructor is set.
	Function    *Function
	Constructor *Constructor

	// Args holds one entry per target parameter. A nil entry means the
	// argument was omitted and the parameter's default applies.
	Args []Expr
}

// Params returns the target's value parameters.
func (r *ResolvedCall) Params() []*ValueParameter {
	if r.Constructor != nil {
		return r.Constructor.Params
	}
	return r.Function.Params
}

// UsesDefaults reports whether any argument was omitted.
func (r *ResolvedCall) UsesDefaults() bool {
	for _, a := range r.Args {
		if a == nil {
			return true
		}
	}
	return false
}

// TypeOfOrErr is TypeOf returning an UnresolvedError on a miss.
func TypeOfOrErr(o Oracle, e Expr) (*Type, error) {
	t, ok := o.TypeOf(e)
	if !ok || t == nil {
		return nil, &UnresolvedError{What: "expression type", Subject: fmt.Sprintf("%T", e)}
	}
	return t, nil
}

// ResolvedCallOrErr is ResolvedCall returning an UnresolvedError on a miss.
func ResolvedCallOrErr(o Oracle, c *Call) (*ResolvedCall, error) {
	r, ok := o.ResolvedCall(c)
	if !ok || r == nil || (r.Function == nil && r.Constructor == nil) {
		return nil, &UnresolvedError{What: "call target", Subject: c.Callee}
	}
	if len(r.Args) != len(r.Params()) {
		return nil, &UnresolvedError{What: "argument mapping", Subject: c.Callee}
	}
	return r, nil
}
