package classgen

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/classgen/sink"
)

var validate = validator.New()

// Target names accepted in Config.Targets.
const (
	TargetJVM = "jvm"
	TargetJS  = "js"
)

// Config holds the configuration of a generation run.
type Config struct {
	// Targets lists the targets to emit ("jvm", "js").
	// Default: both.
	Targets []string `toml:"targets" schema:"targets" validate:"required,min=1,dive,oneof=jvm js"`

	// ECMAVersion selects the JS dialect: 5 defines accessors natively,
	// 3 uses get_/set_ methods.
	// Default: 5
	ECMAVersion int `toml:"ecma" schema:"ecma" validate:"oneof=3 5"`

	// OutDir is the directory artifacts are written to when Sink is nil.
	OutDir string `toml:"out_dir" schema:"out_dir"`

	// Listing also writes a text listing next to every JVM class model.
	Listing bool `toml:"listing" schema:"listing"`

	// Manifest writes manifest.json describing the run.
	Manifest bool `toml:"manifest" schema:"manifest"`

	// Module names the JS artifact, "<Module>.js".
	// Default: "module"
	Module string `toml:"module" schema:"module" validate:"omitempty,min=1,excludesall=/\\"`

	// Sink receives the artifacts. Overrides OutDir.
	Sink sink.Sink `toml:"-" schema:"-"`

	// Logger receives progress and diagnostics. Default: discard.
	Logger *slog.Logger `toml:"-" schema:"-"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Set applies key=value overrides to cfg. Repeating a key that holds a list
// appends to it; the first use of a list key replaces the configured list.
func (cfg *Config) Set(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	values := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid override %q (want key=value)", p)
		}
		values.Add(k, v)
	}
	if _, ok := values["targets"]; ok {
		cfg.Targets = nil
	}
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(false)
	if err := dec.Decode(cfg, values); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}
	return nil
}

// Validate checks the configuration after defaults are applied.
func (cfg Config) Validate() error {
	err := validate.Struct(applyConfigDefaults(cfg))
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %s validation", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: must be %s %s", fe.Namespace(), fe.Tag(), fe.Param())
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
func applyConfigDefaults(cfg Config) Config {
	if len(cfg.Targets) == 0 {
		cfg.Targets = []string{TargetJVM, TargetJS}
	}
	if cfg.ECMAVersion == 0 {
		cfg.ECMAVersion = 5
	}
	if cfg.Module == "" {
		cfg.Module = "module"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}
