package gen

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestCmd_Config(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "classgen.toml")
	if err := os.WriteFile(file, []byte("targets = [\"jvm\", \"js\"]\nout_dir = \"build\"\necma = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		cmd         Cmd
		wantTargets []string
		wantECMA    int
		wantOut     string
		wantErr     string
	}{
		{
			name:        "file only",
			cmd:         Cmd{Config: file},
			wantTargets: []string{"jvm", "js"},
			wantECMA:    3,
			wantOut:     "build",
		},
		{
			name:        "flags override file",
			cmd:         Cmd{Config: file, Target: []string{"js"}, ECMA: 5, Out: "dist"},
			wantTargets: []string{"js"},
			wantECMA:    5,
			wantOut:     "dist",
		},
		{
			name:        "set overrides flags",
			cmd:         Cmd{Out: "dist", Target: []string{"js"}, Set: []string{"targets=jvm"}},
			wantTargets: []string{"jvm"},
			wantOut:     "dist",
		},
		{
			name:    "no output",
			cmd:     Cmd{},
			wantErr: "no output directory",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.cmd.config()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("config() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("config() error = %v", err)
			}
			if !slices.Equal(cfg.Targets, tt.wantTargets) {
				t.Errorf("Targets = %v, want %v", cfg.Targets, tt.wantTargets)
			}
			if cfg.ECMAVersion != tt.wantECMA {
				t.Errorf("ECMAVersion = %d, want %d", cfg.ECMAVersion, tt.wantECMA)
			}
			if !filepath.IsAbs(cfg.OutDir) || filepath.Base(cfg.OutDir) != tt.wantOut {
				t.Errorf("OutDir = %s, want absolute path ending in %s", cfg.OutDir, tt.wantOut)
			}
		})
	}
}
