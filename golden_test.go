package classgen

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/broady/classgen/ir"
	"github.com/broady/classgen/sink"
)

// TestGolden generates every program under testdata/golden and checks that
// each line of an expected file appears in the artifact of the same path.
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden files")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			var prog *ir.Program
			var want []txtar.File
			for _, f := range ar.Files {
				if f.Name == "program.yaml" {
					if prog, err = ir.Load(bytes.NewReader(f.Data)); err != nil {
						t.Fatalf("Load() error = %v", err)
					}
					continue
				}
				want = append(want, f)
			}
			if prog == nil {
				t.Fatal("no program.yaml section")
			}

			out := sink.NewMemory()
			res, err := Generate(context.Background(), prog, Config{Sink: out, Listing: true})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(res.Diagnostics) != 0 {
				t.Fatalf("Diagnostics:\n%s", res.Diagnostics)
			}

			failed := false
			for _, f := range want {
				got := out.Get(f.Name)
				if got == nil {
					t.Errorf("%s not generated", f.Name)
					failed = true
					continue
				}
				for _, line := range strings.Split(string(f.Data), "\n") {
					if strings.TrimSpace(line) == "" {
						continue
					}
					if !bytes.Contains(got, []byte(line)) {
						t.Errorf("%s missing %q", f.Name, line)
						failed = true
					}
				}
			}
			if failed {
				t.Logf("generated:\n%s", txtar.Format(out.Archive()))
			}
		})
	}
}
