// Package classgen lowers resolved programs to JVM and JavaScript targets.
//
// A Unit is one compilation unit: it owns the naming cache of every target
// it emits to and the static initializers that several classes contribute
// to. LowerAndEmit drives synthesis and lowering of one top-level class and
// its nested classes through a target.Emitter. Generate runs the full
// pipeline over a program and writes artifacts to a sink.
package classgen

import (
	"context"
	"log/slog"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/lower"
	"github.com/broady/classgen/naming"
	"github.com/broady/classgen/synth"
	"github.com/broady/classgen/target"
)

// Unit is a compilation unit. It is not safe for concurrent use.
type Unit struct {
	oracle  ir.Oracle
	logger  *slog.Logger
	caches  map[string]*naming.Cache
	targets map[target.Emitter]*unitTarget
}

type unitTarget struct {
	layout  *synth.Layout
	lower   *lower.Lowerer
	statics *lower.StaticInitBuilder
}

// UnitOption configures a Unit.
type UnitOption func(*Unit)

// WithLogger sets the logger class boundaries and diagnostics are logged to.
func WithLogger(l *slog.Logger) UnitOption {
	return func(u *Unit) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewUnit returns a unit resolving declarations through oracle.
func NewUnit(oracle ir.Oracle, opts ...UnitOption) *Unit {
	u := &Unit{
		oracle:  oracle,
		logger:  slog.New(slog.DiscardHandler),
		caches:  make(map[string]*naming.Cache),
		targets: make(map[target.Emitter]*unitTarget),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Mapper returns the unit's mapper for style. Mappers of one style share
// the unit's cache, so names stay stable across classes.
func (u *Unit) Mapper(style naming.Style) *naming.Mapper {
	cache, ok := u.caches[style.Key()]
	if !ok {
		cache = naming.NewCache()
		u.caches[style.Key()] = cache
	}
	return naming.New(style, cache, u.oracle)
}

func (u *Unit) target(em target.Emitter) *unitTarget {
	t, ok := u.targets[em]
	if !ok {
		l := synth.NewLayout(u.Mapper(em.NamingStyle()))
		t = &unitTarget{layout: l, lower: lower.New(l), statics: lower.NewStaticInitBuilder()}
		u.targets[em] = t
	}
	return t
}

// LowerAndEmit synthesizes and lowers c and its nested classes, parent
// first, and emits them through em; the static initializers they
// contribute are emitted last. Cancellation of ctx stops lowering at the
// next class or member boundary and returns no diagnostics; the caller
// must discard what em received.
func (u *Unit) LowerAndEmit(ctx context.Context, c *ir.Class, em target.Emitter) Diagnostics {
	t := u.target(em)
	t.statics = lower.NewStaticInitBuilder()

	var diags Diagnostics
	fatal := false
	var walk func(c *ir.Class)
	walk = func(c *ir.Class) {
		if fatal {
			return
		}
		if err := u.lowerClass(ctx, t, c, em); err != nil {
			d := classify(c.Name, err)
			if d == nil {
				fatal = true
				return
			}
			u.logger.Error("class lowering failed",
				slog.String("class", c.Name),
				slog.String("code", string(d.Code)),
				slog.String("member", d.Member),
				slog.String("message", d.Message))
			diags = append(diags, d)
			fatal = d.Code.FatalForUnit()
			return
		}
		for _, child := range ir.Children(c) {
			walk(child)
		}
	}
	walk(c)

	if ctx.Err() != nil {
		return nil
	}
	if len(diags) > 0 {
		return diags
	}
	if err := u.flushStatics(t, em); err != nil {
		return Diagnostics{classify(c.Name, err)}
	}
	return nil
}

func (u *Unit) lowerClass(ctx context.Context, t *unitTarget, c *ir.Class, em target.Emitter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	plan, err := synth.Synthesize(c, t.layout)
	if err != nil {
		return err
	}
	if err := em.DefineType(plan.Type); err != nil {
		return emitError(err)
	}
	if plan.TraitImpl != nil {
		if err := em.DefineType(*plan.TraitImpl); err != nil {
			return emitError(err)
		}
	}
	for _, f := range plan.Fields {
		if err := em.DefineField(f.Owner, f.Def); err != nil {
			return emitError(err)
		}
	}
	for _, n := range plan.Nested {
		if err := em.DefineNestedType(n.Inner, n.Outer, n.Modifiers); err != nil {
			return emitError(err)
		}
	}
	for _, m := range plan.Members {
		if err := ctx.Err(); err != nil {
			return err
		}
		low, err := t.lower.Member(plan, m)
		if err != nil {
			return err
		}
		sink, err := em.BeginMethod(m.Owner, m.Def())
		if err != nil {
			return emitError(err)
		}
		for _, s := range low.Body {
			sink.Emit(s)
		}
		if err := sink.End(); err != nil {
			return emitError(err)
		}
	}
	for _, s := range plan.StaticInit {
		stmts, err := t.lower.StaticInit(s)
		if err != nil {
			return err
		}
		t.statics.Add(s.InitOwner(), stmts...)
	}
	u.logger.Debug("lowered class",
		slog.String("class", c.Name),
		slog.String("target", em.NamingStyle().Target),
		slog.Int("members", len(plan.Members)),
		slog.Int("fields", len(plan.Fields)))
	return nil
}

func (u *Unit) flushStatics(t *unitTarget, em target.Emitter) error {
	for _, owner := range t.statics.Owners() {
		sink, err := em.BeginMethod(owner, target.MethodDef{
			Name:       naming.StaticInitName,
			Descriptor: "()V",
			Return:     ir.Unit(),
			Modifiers:  target.Static,
			Kind:       target.StaticInit,
		})
		if err != nil {
			return emitError(err)
		}
		for _, s := range t.statics.Body(owner) {
			sink.Emit(s)
		}
		if err := sink.End(); err != nil {
			return emitError(err)
		}
	}
	t.statics = lower.NewStaticInitBuilder()
	return nil
}
