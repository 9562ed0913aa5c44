package classgen

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/broady/classgen/jvm"
	"github.com/broady/classgen/sink"
)

func TestGenerate(t *testing.T) {
	p := mustLoad(t, diamondSource)
	out := sink.NewMemory()
	res, err := Generate(context.Background(), p, Config{Sink: out, Listing: true, Manifest: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !slices.Equal(res.Targets, []string{TargetJVM, TargetJS}) {
		t.Errorf("Targets = %v, want default [jvm js]", res.Targets)
	}
	if !slices.Equal(out.Paths(), res.Files) {
		t.Errorf("written %v, Result.Files %v", out.Paths(), res.Files)
	}
	for _, want := range []string{
		"jvm/demo/Resolved.classmodel",
		"jvm/demo/Resolved.txt",
		"js/module.js",
		"manifest.json",
	} {
		if !slices.Contains(res.Files, want) {
			t.Errorf("Files = %v, missing %s", res.Files, want)
		}
	}
	for _, p := range res.Files {
		if strings.Contains(p, "Both") {
			t.Errorf("class with diagnostics produced %s", p)
		}
	}
	if src := string(out.Get("js/module.js")); strings.Contains(src, "Both") || !strings.Contains(src, "Resolved") {
		t.Errorf("js/module.js should define Resolved but not Both:\n%s", src)
	}

	cf, err := jvm.Unmarshal(out.Get("jvm/demo/Resolved.classmodel"))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cf.Name != "demo/Resolved" || cf.Method("f", "") == nil {
		t.Errorf("class model = %s with methods %d, want demo/Resolved.f", cf.Name, len(cf.Methods))
	}

	// One diagnostic per target, ordered by declaration then target.
	if len(res.Diagnostics) != 2 {
		t.Fatalf("Diagnostics = %v, want 2", res.Diagnostics)
	}
	for i, want := range []string{TargetJS, TargetJVM} {
		d := res.Diagnostics[i]
		if d.Declaration != "demo.Both" || d.Code != CodeAmbiguousDelegation || d.Target != want {
			t.Errorf("Diagnostics[%d] = %s (%s), want ambiguous demo.Both (%s)", i, d, d.Target, want)
		}
	}

	var manifest Result
	if err := json.Unmarshal(out.Get("manifest.json"), &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.BuildID == "" || manifest.BuildID != res.BuildID {
		t.Errorf("manifest build_id = %q, want %q", manifest.BuildID, res.BuildID)
	}
	if !slices.Equal(manifest.Files, res.Files) {
		t.Errorf("manifest files = %v, want %v", manifest.Files, res.Files)
	}
}

func TestGenerate_SingleTarget(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantFiles []string
	}{
		{
			name:      "jvm",
			cfg:       Config{Targets: []string{TargetJVM}},
			wantFiles: []string{"jvm/demo/Registry$Entry.classmodel", "jvm/demo/Registry$object.classmodel", "jvm/demo/Registry.classmodel"},
		},
		{
			name:      "js ecma3",
			cfg:       Config{Targets: []string{TargetJS}, ECMAVersion: 3, Module: "registry"},
			wantFiles: []string{"js/registry.js"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sink.NewMemory()
			tt.cfg.Sink = out
			res, err := Generate(context.Background(), mustLoad(t, registrySource), tt.cfg)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(res.Diagnostics) != 0 {
				t.Errorf("Diagnostics = %v", res.Diagnostics)
			}
			if !slices.Equal(out.Paths(), tt.wantFiles) {
				t.Errorf("files = %v, want %v", out.Paths(), tt.wantFiles)
			}
		})
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := sink.NewMemory()
	res, err := Generate(ctx, mustLoad(t, registrySource), Config{Sink: out, Manifest: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Errorf("Generate() result = %+v, want nil", res)
	}
	if paths := out.Paths(); len(paths) != 0 {
		t.Errorf("canceled run wrote %v", paths)
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown target", Config{Targets: []string{"wasm"}, Sink: sink.NewMemory()}, "Targets[0]"},
		{"bad ecma", Config{ECMAVersion: 6, Sink: sink.NewMemory()}, "ECMAVersion"},
		{"no output", Config{}, "OutDir or Sink"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(context.Background(), mustLoad(t, registrySource), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Generate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
