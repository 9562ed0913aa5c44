package classgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/js"
	"github.com/broady/classgen/jvm"
	"github.com/broady/classgen/sink"
	"github.com/broady/classgen/target"
)

// Result describes a generation run.
type Result struct {
	// BuildID identifies the run; it is recorded in the manifest.
	BuildID string `json:"build_id"`

	Targets []string `json:"targets"`

	// Files lists the written artifact paths in sorted order.
	Files []string `json:"files"`

	// Diagnostics lists the fatal conditions per class. Classes with
	// diagnostics have no artifacts.
	Diagnostics Diagnostics `json:"diagnostics,omitempty"`
}

// truncater is an emitter that can drop the types defined after a point.
type truncater interface {
	target.Emitter
	Types() int
	Truncate(n int)
}

type jvmEmitter struct{ *jvm.Writer }

func (e jvmEmitter) Types() int { return len(e.Classes()) }

type jsEmitter struct{ *js.Writer }

func (e jsEmitter) Types() int { return len(e.Writer.Types()) }

// Generate lowers every top-level class of prog for each configured target
// and writes the artifacts to the configured sink. Targets are lowered
// concurrently, each in its own Unit. A class with diagnostics contributes
// no artifacts; a diagnostic that is fatal for the unit discards the whole
// target. When ctx is canceled nothing is written and ctx.Err() is
// returned.
func Generate(ctx context.Context, prog *ir.Program, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = applyConfigDefaults(cfg)
	out := cfg.Sink
	if out == nil {
		if cfg.OutDir == "" {
			return nil, errors.New("classgen: OutDir or Sink is required")
		}
		out = sink.NewDir(cfg.OutDir)
	}
	log := cfg.Logger
	for _, w := range prog.Warnings {
		log.Warn("program warning",
			slog.String("code", w.Code),
			slog.String("subject", w.Subject),
			slog.String("message", w.Message))
	}

	res := &Result{BuildID: uuid.NewString(), Targets: slices.Clone(cfg.Targets)}
	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range cfg.Targets {
		g.Go(func() error {
			files, diags, err := generateTarget(gctx, prog, name, cfg)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for p, data := range files {
				artifacts[p] = data
			}
			res.Diagnostics = append(res.Diagnostics, diags...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(res.Diagnostics, func(a, b *Diagnostic) int {
		if c := strings.Compare(a.Declaration, b.Declaration); c != 0 {
			return c
		}
		return strings.Compare(a.Target, b.Target)
	})
	for p := range artifacts {
		res.Files = append(res.Files, p)
	}
	slices.Sort(res.Files)
	if cfg.Manifest {
		res.Files = append(res.Files, "manifest.json")
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
		artifacts["manifest.json"] = append(data, '\n')
	}
	for _, p := range res.Files {
		if err := out.WriteFile(ctx, p, artifacts[p]); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
	}
	log.Info("generated",
		slog.String("build_id", res.BuildID),
		slog.Int("files", len(res.Files)),
		slog.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

// generateTarget lowers prog for one target and renders its artifacts.
// Cancellation is reported as an error; diagnostics are not.
func generateTarget(ctx context.Context, prog *ir.Program, name string, cfg Config) (map[string][]byte, Diagnostics, error) {
	var em truncater
	switch name {
	case TargetJVM:
		em = jvmEmitter{jvm.NewWriter()}
	case TargetJS:
		em = jsEmitter{js.NewWriter(cfg.ECMAVersion >= 5)}
	default:
		return nil, nil, fmt.Errorf("classgen: unknown target %q", name)
	}
	log := cfg.Logger.With(slog.String("target", name))
	unit := NewUnit(prog, WithLogger(log))

	var diags Diagnostics
	for _, c := range prog.Classes {
		mark := em.Types()
		ds := unit.LowerAndEmit(ctx, c, em)
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if len(ds) == 0 {
			continue
		}
		em.Truncate(mark)
		for _, d := range ds {
			d.Target = name
		}
		diags = append(diags, ds...)
		if ds.FatalForUnit() {
			log.Error("unit aborted", slog.String("class", c.Name))
			em.Truncate(0)
			break
		}
	}

	files, err := render(em, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("rendered target", slog.Int("files", len(files)), slog.Int("diagnostics", len(diags)))
	return files, diags, nil
}

func render(em truncater, cfg Config) (map[string][]byte, error) {
	files := make(map[string][]byte)
	switch e := em.(type) {
	case jvmEmitter:
		for _, cf := range e.Classes() {
			data, err := jvm.Marshal(cf)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", cf.Name, err)
			}
			files["jvm/"+cf.Name+".classmodel"] = data
			if cfg.Listing {
				files["jvm/"+cf.Name+".txt"] = []byte(jvm.Listing(cf))
			}
		}
	case jsEmitter:
		if e.Types() == 0 {
			return files, nil
		}
		src, err := e.Source()
		if err != nil {
			return nil, err
		}
		files["js/"+cfg.Module+".js"] = []byte(src)
	}
	return files, nil
}
